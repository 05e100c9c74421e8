package gudgeontop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Watch polls source for group and prints every new sample to out as one
// line, until ctx is done
func Watch(ctx context.Context, source SampleSource, group MetricGroup, window int, out io.Writer) error {
	if err := group.Validate(); err != nil {
		return err
	}
	poller, err := NewPoller("watch-"+group.ID, WatchInterval)
	if err != nil {
		return err
	}

	buf := NewBuffer(group, window)
	header := []string{"time"}
	for _, spec := range group.Series {
		header = append(header, spec.Name)
	}
	if _, err := fmt.Fprintln(out, strings.Join(header, "\t")); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var writeErr error
	poller.Run(runCtx, func(ctx context.Context) error {
		now := time.Now()
		samples, err := source.Samples(ctx, buf.Since(now), group.Keys())
		if err != nil {
			return err
		}
		if n := buf.Merge(samples, now); n == 0 {
			return nil
		}
		for _, sample := range samples {
			if err := writeSample(out, group, sample); err != nil {
				writeErr = err
				cancel()
				return err
			}
		}
		return nil
	})

	if writeErr != nil {
		return writeErr
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func writeSample(out io.Writer, group MetricGroup, sample Sample) error {
	fields := []string{sample.AtTime.Local().Format(time.DateTime)}
	for _, spec := range group.Series {
		format := spec.Formatter
		if format == nil {
			format = group.Formatter
		}
		if format == nil {
			format = LocaleNumber
		}
		fields = append(fields, format(seriesValue(sample, spec)))
	}
	_, err := fmt.Fprintln(out, strings.Join(fields, "\t"))
	return err
}
