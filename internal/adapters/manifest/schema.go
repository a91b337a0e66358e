package manifest

import (
	"gopkg.in/yaml.v3"
)

// manifestFile is the on-disk shape of project.yaml.
type manifestFile struct {
	Name            string                       `yaml:"name" validate:"omitempty,excludesall=/\\"`
	Version         string                       `yaml:"version" validate:"omitempty,semver"`
	Commands        map[string]string            `yaml:"commands" validate:"dive,keys,required,endkeys,required"`
	Compile         []string                     `yaml:"compile" validate:"dive,required"`
	Exclude         []string                     `yaml:"exclude" validate:"dive,required"`
	Shared          []string                     `yaml:"shared" validate:"dive,required"`
	CompilerOptions compilerOptionsDTO           `yaml:"compilerOptions"`
	Configurations  orderedMap[configurationDTO] `yaml:"configurations" validate:"dive"`
	Dependencies    orderedMap[dependencyDTO]    `yaml:"dependencies" validate:"dive"`
	Frameworks      orderedMap[frameworkDTO]     `yaml:"frameworks" validate:"required,min=1,dive"`
}

type compilerOptionsDTO struct {
	Defines          []string `yaml:"defines" validate:"dive,required"`
	Optimize         *bool    `yaml:"optimize"`
	WarningsAsErrors *bool    `yaml:"warningsAsErrors"`
	LanguageVersion  string   `yaml:"languageVersion"`
}

type configurationDTO struct {
	CompilerOptions compilerOptionsDTO `yaml:"compilerOptions"`
}

type frameworkDTO struct {
	Dependencies        orderedMap[dependencyDTO] `yaml:"dependencies" validate:"dive"`
	FrameworkAssemblies []string                  `yaml:"frameworkAssemblies" validate:"dive,required"`
	CompilerOptions     compilerOptionsDTO        `yaml:"compilerOptions"`
	Assembly            string                    `yaml:"assembly"`
	WrappedProject      string                    `yaml:"wrappedProject"`
}

// dependencyDTO accepts either a bare version string or a mapping.
type dependencyDTO struct {
	Version string `yaml:"version" validate:"omitempty,semver"`
	Target  string `yaml:"target" validate:"omitempty,oneof=project package assembly"`
}

func (d *dependencyDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if node.Tag != "!!null" {
			d.Version = node.Value
		}
		return nil
	}
	type plain dependencyDTO
	return node.Decode((*plain)(d))
}

// settingsFile is the on-disk shape of workspace.yaml.
type settingsFile struct {
	Projects   []string `yaml:"projects" validate:"dive,required"`
	Packages   string   `yaml:"packages"`
	References string   `yaml:"references"`
}

type mapEntry[V any] struct {
	Key   string `validate:"required"`
	Value V
}

// orderedMap decodes a YAML mapping while keeping declaration order.
type orderedMap[V any] []mapEntry[V]

func (m *orderedMap[V]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return &yaml.TypeError{Errors: []string{"expected a mapping"}}
	}
	entries := make(orderedMap[V], 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var value V
		if err := node.Content[i+1].Decode(&value); err != nil {
			return err
		}
		entries = append(entries, mapEntry[V]{Key: node.Content[i].Value, Value: value})
	}
	*m = entries
	return nil
}
