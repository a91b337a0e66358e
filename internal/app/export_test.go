package app

// OwningProjects exposes owningProjects for tests.
var OwningProjects = owningProjects
