package extract

import "fmt"

// ParseError reports a native parse failure. The engine treats it as
// recoverable and reroutes the file to the analysis tier.
type ParseError struct {
	File     string
	Language string
	Detail   string
}

func (e *ParseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s parse failed: %s", e.File, e.Language, e.Detail)
	}
	return fmt.Sprintf("%s: %s parse failed", e.File, e.Language)
}
