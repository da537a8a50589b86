package config

// Version is the current steinlang version.
var Version = "0.1.0"

const SourceFileExt = ".stein"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".stein"}

// TrimSourceExt removes any recognized source extension from a filename.
// Returns the original string if no extension matches.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt returns true if the path ends with any recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// PrintFuncName is the statement keyword steinlang uses for output.
const PrintFuncName = "print"
