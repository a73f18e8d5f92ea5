package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// ARRAY[...] literal findings
	ArrInfo             Code = 1000
	ArrDroppedText      Code = 1001
	ArrMismatchedQuotes Code = 1002
	ArrNoQuotedItems    Code = 1003
	ArrRewritten        Code = 1004

	// I/O
	IOInfo            Code = 4000
	IOLoadFileError   Code = 4001
	IOInvalidEncoding Code = 4002
	IOWriteFileError  Code = 4003
)

var codeDescription = map[Code]string{
	UnknownCode:         "Unknown error",
	ArrInfo:             "Array literal information",
	ArrDroppedText:      "Text dropped from array literal",
	ArrMismatchedQuotes: "Array item delimited by different quote kinds",
	ArrNoQuotedItems:    "Array literal has no quoted items",
	ArrRewritten:        "Array literal rewritten",
	IOInfo:              "I/O information",
	IOLoadFileError:     "Failed to load file",
	IOInvalidEncoding:   "File is not valid UTF-8",
	IOWriteFileError:    "Failed to write file",
}

// ID returns the stable short identifier, e.g. ARR1001.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("ARR%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
