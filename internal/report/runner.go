package report

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/chart"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/output"
)

// Runner writes results in the configured format and emits their charts.
type Runner struct {
	Out    io.Writer
	Charts chart.Sink
	Format output.Format
	Log    logrus.FieldLogger
}

// Emit writes res and hands its charts to the sink. A chart that fails to
// render is logged; the report itself has already been written.
func (r *Runner) Emit(ctx context.Context, res Result) error {
	if r.Format.IsStructured() {
		f, err := output.GetFormatter(r.Format)
		if err != nil {
			return err
		}
		if err := f.FormatToWriter(r.Out, res); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	} else if err := res.WriteText(r.Out); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if r.Charts == nil {
		return nil
	}
	for _, c := range res.Charts() {
		if err := r.Charts.Render(ctx, c); err != nil && r.Log != nil {
			r.Log.WithError(err).WithField("chart", c.Title).Warn("chart not emitted")
		}
	}
	return nil
}

// Session is one interactive run: banner, statistics, menu, one report.
type Session struct {
	Catalog Catalog
	In      *bufio.Reader
	// UI receives the banner, menu, prompts and closing line. In text mode
	// it is the same writer as Runner.Out.
	UI     io.Writer
	Runner *Runner
}

// Run executes the session. The only errors returned are query, output and
// input failures; an unknown option is reported to the user and is not an
// error.
func (s *Session) Run(ctx context.Context) error {
	WriteBanner(s.UI)

	stats, err := Stats(ctx, s.Catalog)
	if err != nil {
		return err
	}
	if err := s.Runner.Emit(ctx, stats); err != nil {
		return err
	}
	fmt.Fprintln(s.UI)

	WriteMenu(s.UI)
	option, err := Prompt(ctx, s.In, s.UI, "Enter your option: ")
	if err != nil {
		return err
	}
	option = strings.ToLower(strings.TrimSpace(option))

	if option == "x" {
		fmt.Fprintln(s.UI, "Exiting program.")
		return nil
	}

	rep, err := Lookup(option)
	switch {
	case errors.Is(err, ErrUnknownReport):
		fmt.Fprintln(s.UI, "Invalid option. Please try again.")
	case err != nil:
		return err
	default:
		args, err := Collect(ctx, s.In, s.UI, rep.Params)
		if err != nil {
			return err
		}
		res, err := rep.Run(ctx, s.Catalog, args...)
		if err != nil {
			return err
		}
		if err := s.Runner.Emit(ctx, res); err != nil {
			return err
		}
	}

	fmt.Fprintln(s.UI, "Exiting program.")
	return nil
}

// WriteBanner prints the program banner.
func WriteBanner(w io.Writer) {
	fmt.Fprintln(w, "Chicago Traffic Camera Analysis")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "This application allows you to analyze various")
	fmt.Fprintln(w, "aspects of the Chicago traffic camera database.")
	fmt.Fprintln(w)
}

// WriteMenu prints the numbered menu built from the dispatch table.
func WriteMenu(w io.Writer) {
	fmt.Fprintln(w, "Select a menu option: ")
	for _, r := range table {
		fmt.Fprintf(w, "  %s. %s\n", r.Option, r.Title)
	}
	fmt.Fprintln(w, "or x to exit the program.")
}

// Prompt writes text and reads one line of input without its line ending.
// A final line without a newline is accepted. When ctx is done first Prompt
// returns ctx.Err(); the pending read still owns in, so in must not be used
// afterwards.
func Prompt(ctx context.Context, in *bufio.Reader, w io.Writer, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(w, text)

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := in.ReadString('\n')
		ch <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a := <-ch:
		if a.err != nil && !(errors.Is(a.err, io.EOF) && a.line != "") {
			return "", fmt.Errorf("read input: %w", a.err)
		}
		return strings.TrimRight(a.line, "\r\n"), nil
	}
}

// Collect prompts for each parameter in order. Answers are returned as
// typed; Report.Run applies Param.Trim.
func Collect(ctx context.Context, in *bufio.Reader, w io.Writer, params []Param) ([]string, error) {
	args := make([]string, 0, len(params))
	for _, p := range params {
		v, err := Prompt(ctx, in, w, p.Prompt)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}
