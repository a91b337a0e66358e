package manifest

import (
	"errors"
	"io/fs"

	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/zerr"
)

// PackageFileName is the metadata file of a package version in the local store.
const PackageFileName = "package.yaml"

type packageFile struct {
	Dependencies orderedMap[dependencyDTO]       `yaml:"dependencies" validate:"dive"`
	Frameworks   orderedMap[packageFrameworkDTO] `yaml:"frameworks" validate:"dive"`
}

type packageFrameworkDTO struct {
	Dependencies orderedMap[dependencyDTO] `yaml:"dependencies" validate:"dive"`
}

// ReadPackage returns the dependency ranges a package version declares for
// fw: its common dependencies followed by the framework specific ones.
func ReadPackage(path string, fw domain.Framework) ([]domain.LibraryRange, error) {
	var file packageFile
	if err := readYAML(path, &file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.ErrInputNotFound, "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to parse package metadata"), "path", path)
	}
	if err := validate.Struct(&file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "invalid package metadata"), "path", path)
	}

	ranges := toRanges(file.Dependencies)
	for _, entry := range file.Frameworks {
		declared, err := domain.ParseFramework(entry.Key)
		if err != nil {
			return nil, zerr.With(err, "path", path)
		}
		if declared == fw {
			ranges = append(ranges, toRanges(entry.Value.Dependencies)...)
		}
	}
	return ranges, nil
}
