package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota // не с диска
	// FileHadBOM marks content that starts with a UTF-8 byte order mark.
	FileHadBOM
	// FileHasCRLF marks content that contains at least one \r\n line ending.
	FileHasCRLF
)

// File captures metadata and content for a single seed file.
// Content is kept byte-for-byte as read: BOM and CRLF are only recorded in Flags.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based, in bytes
}
