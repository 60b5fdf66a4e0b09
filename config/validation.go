package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the loaded options for structural problems.
// Struct-tag rules cover required fields and enumerations; the rest is
// checked explicitly because the constraints span multiple fields.
func Validate(opts *Options) error {
	if err := validate.Struct(opts); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("builder options: %s", describeFieldErrors(verrs))
		}
		return err
	}

	if opts.Response.Name != "" && opts.Response.PayloadProperty == "" {
		return fmt.Errorf("response envelope %q needs a payload property", opts.Response.Name)
	}

	if err := validateOutput(&opts.Output); err != nil {
		return fmt.Errorf("output options: %w", err)
	}

	return nil
}

func validateOutput(out *OutputOptions) error {
	if out.ArtifactPath == "" {
		return fmt.Errorf("artifact path is required")
	}

	if out.DocumentPath == "" {
		return fmt.Errorf("document path is required")
	}

	if out.GeneratorBinary == "" {
		return fmt.Errorf("generator binary is required")
	}

	if out.WorkerTimeout < 0 {
		return fmt.Errorf("worker timeout must not be negative")
	}

	// Rewrite roots come as a pair or not at all
	if (out.SourceRoot == "") != (out.OutputRoot == "") {
		return fmt.Errorf("source root and output root must be set together")
	}

	return nil
}

func describeFieldErrors(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", strings.ToLower(fe.Field()), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
