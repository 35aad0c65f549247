package errors

import "fmt"

// Wrap adds context to err at a package boundary. It returns nil for a nil
// err, so it can be used inline. The chain is preserved for errors.Is:
//
//	if err := cache.Clear(ctx); err != nil {
//	    return errors.Wrap(err, "failed to clear cache")
//	}
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Detail returns sentinel annotated with the offending value, for example
// `unknown browser backend: "webkit"`. The result matches sentinel under
// errors.Is, which is how the CLI picks the exit code.
func Detail(sentinel error, value any) error {
	return fmt.Errorf("%w: %q", sentinel, fmt.Sprint(value))
}
