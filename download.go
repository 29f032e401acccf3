package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/spkg/bom"

	"transitview.dev/metrics/daterange"
	"transitview.dev/metrics/fetch"
	"transitview.dev/metrics/query"
)

// Filename for a downloaded arrivals CSV. Only the first two
// expanded dates appear in the name, however many the range expands
// to, so a long range is summarized by its leading dates.
func ArrivalsCSVFilename(routeID string, dates []string) string {
	if len(dates) >= 2 {
		return fmt.Sprintf("arrivals_%s_%s_%s.csv", routeID, dates[0], dates[1])
	}
	return fmt.Sprintf("arrivals_%s_%s.csv", routeID, dates[0])
}

// Streams the backend's arrivals CSV export for the selected route
// and primary range into w, returning the filename the export
// should be saved under. A byte order mark at the head of the
// stream is dropped.
//
// This is a direct user action, not a scope fetch: it bypasses the
// store and reports errors to the caller.
func (c *Coordinator) DownloadArrivalsCSV(
	ctx context.Context,
	p query.Params,
	w io.Writer,
) (string, error) {
	dates := daterange.Expand(p.FirstRange, query.MaxDateRange)
	if len(dates) == 0 {
		return "", fmt.Errorf("selection expands to no dates")
	}

	vars, err := json.Marshal(map[string]interface{}{
		"agencyId":  p.AgencyID,
		"routeId":   p.RouteID,
		"dates":     dates,
		"startTime": p.FirstRange.StartTime,
		"endTime":   p.FirstRange.EndTime,
	})
	if err != nil {
		panic(err)
	}

	body, err := c.Fetcher.Get(
		ctx,
		c.DownloadEndpoint+"?variables="+url.QueryEscape(string(vars)),
		fetch.GetOptions{
			Timeout: c.ArchiveTimeout,
			MaxSize: c.ArchiveMaxSize,
		},
	)
	if err != nil {
		return "", fmt.Errorf("downloading csv: %w", err)
	}

	if _, err := io.Copy(w, bom.NewReader(bytes.NewReader(body))); err != nil {
		return "", fmt.Errorf("writing csv: %w", err)
	}

	return ArrivalsCSVFilename(p.RouteID, dates), nil
}
