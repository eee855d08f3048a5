// Package validate provides shared validation functions for CLI input.
package validate

import (
	"fmt"

	"github.com/hay-kot/criterio"
)

// CommentText validates a comment body is non-empty. Whitespace counts as
// content.
func CommentText(text string) error {
	if text == "" {
		return fmt.Errorf("comment text is required")
	}
	return nil
}

// PositiveID validates an id given on the command line.
func PositiveID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("must be a positive id, got %d", id)
	}
	return nil
}

// CommentTextField returns a criterio validator for comment text.
func CommentTextField(field, text string) error {
	return criterio.Run(field, text, CommentText)
}

// IDField returns a criterio validator for an id flag.
func IDField(field string, id int64) error {
	return criterio.Run(field, id, PositiveID)
}
