package core

// FileStatus is the change status of a file within a pull request.
type FileStatus string

const (
	FileAdded    FileStatus = "added"
	FileModified FileStatus = "modified"
	FileRemoved  FileStatus = "removed"
)

// FileChange holds the diff metadata for a single changed file.
type FileChange struct {
	Filename  string     `json:"filename"`
	Status    FileStatus `json:"status"`
	Patch     string     `json:"patch"`
	Additions int        `json:"additions"`
	Deletions int        `json:"deletions"`
}

// Content sentinels recorded in a DiffBundle's context map when the
// pre-change content of a file could not, or need not, be fetched.
const (
	// NewFileContent marks files that were added by the pull request and
	// therefore have no pre-change content.
	NewFileContent = "[new file]"
)

// DiffBundle is the normalized output of the diff fetcher: the per-file
// changes of a pull request plus the pre-change contents needed as review
// context. Context has an entry for every changed file: added files carry
// NewFileContent, and files whose content fetch failed carry an error
// sentinel produced by the fetcher.
type DiffBundle struct {
	Files   []FileChange
	Context map[string]string
}
