package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/constants"
)

// Page is a 1-based page window over a listing.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows skipped before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// ParsePage turns raw query values into a Page.
// Missing or malformed numbers fall back to the first page of the default size;
// a size outside the allowed range is replaced by the default. Page numbers
// are capped at MaxPageNumber so Offset cannot overflow.
func ParsePage(rawNumber, rawSize string) Page {
	number, err := strconv.Atoi(rawNumber)
	if err != nil || number < 1 {
		number = 1
	}
	if number > constants.MaxPageNumber {
		number = constants.MaxPageNumber
	}

	size, err := strconv.Atoi(rawSize)
	if err != nil || size < constants.MinPageSize || size > constants.MaxPageSize {
		size = constants.DefaultPageSize
	}

	return Page{Number: number, Size: size}
}

// PageFromQuery reads ?page= and ?limit=.
func PageFromQuery(c *gin.Context) Page {
	return ParsePage(c.Query("page"), c.Query("limit"))
}
