package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/riposte/http"
	"github.com/wesleyorama2/riposte/internal/output"
	"github.com/wesleyorama2/riposte/pkg/jsonpath"
	"github.com/wesleyorama2/riposte/pkg/jsonschema"
)

// runRequest executes one request command: resolve options, perform the
// exchange, render the response and apply --extract / --schema
// post-processing. The response buffer lives for the duration of this
// call only.
func runRequest(cmd *cobra.Command, method http.Method, arg string, withBody bool) error {
	opts, err := parseRequestOptions(cmd, withBody)
	if err != nil {
		return err
	}

	url, err := opts.resolveURL(arg)
	if err != nil {
		return err
	}

	client, err := opts.newClient()
	if err != nil {
		return err
	}

	formatter := output.NewFormatter(opts.verbose, opts.noColor)
	out := cmd.OutOrStdout()

	if opts.format == output.FormatText {
		fmt.Fprint(out, formatter.FormatRequest(method, url, opts.headers, opts.body))
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	buf := http.NewBuffer(opts.bufferSize)
	resp, received, err := client.Do(ctx, method, url, opts.headers, opts.body, buf)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), formatter.FormatError(err))
		return err
	}

	rendered, err := output.RenderResponse(opts.format, resp, received, opts.verbose, opts.noColor)
	if err != nil {
		return err
	}
	fmt.Fprint(out, rendered)

	if opts.extract != "" {
		value, err := jsonpath.Extract(resp.Body().Text(), opts.extract)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s = %s\n", opts.extract, value)
	}

	if opts.schemaFile != "" {
		if err := validateAgainstSchema(cmd, opts, resp); err != nil {
			return err
		}
	}

	if resp.IsError() {
		return fmt.Errorf("request failed with status %d", resp.Status().Int())
	}
	return nil
}

func validateAgainstSchema(cmd *cobra.Command, opts *requestOptions, resp *http.Response) error {
	schema, err := os.ReadFile(opts.schemaFile)
	if err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}
	ok, errs := jsonschema.ValidateWithErrors(resp.Body().Text(), string(schema))
	out := cmd.OutOrStdout()
	if !ok {
		fmt.Fprintf(out, "%s Schema validation failed: %s\n", output.ErrorIcon(opts.noColor), errs.Error())
		return fmt.Errorf("schema validation failed")
	}
	fmt.Fprintf(out, "%s Schema validation passed\n", output.SuccessIcon(opts.noColor))
	return nil
}
