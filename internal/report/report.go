// Package report provides status report generation over the visit store.
package report

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"time"

	"github.com/linkmark/linkmark/pkg/model"
	"github.com/linkmark/linkmark/pkg/store"
)

// HostCount is one host's share of the stored visits.
type HostCount struct {
	Host   string
	Visits int
}

// Data holds all data for report generation.
type Data struct {
	GeneratedAt time.Time
	Stats       model.Stats

	// Oldest/Newest are epoch ms, 0 when the store is empty.
	Oldest int64
	Newest int64

	TopHosts []HostCount
}

// Build scans the store and aggregates the report data. topN bounds the
// host list.
func Build(ctx context.Context, st store.Store, topN int) (*Data, error) {
	count, err := st.Count(ctx)
	if err != nil {
		return nil, err
	}
	last, err := st.LastImportTime(ctx)
	if err != nil {
		return nil, err
	}

	data := &Data{
		GeneratedAt: time.Now(),
		Stats:       model.Stats{Count: count, LastImportTime: last},
	}

	records, err := st.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	hosts := make(map[string]int)
	for _, rec := range records {
		if data.Oldest == 0 || rec.Timestamp < data.Oldest {
			data.Oldest = rec.Timestamp
		}
		if rec.Timestamp > data.Newest {
			data.Newest = rec.Timestamp
		}
		if u, err := url.Parse(rec.URL); err == nil {
			hosts[u.Hostname()]++
		}
	}

	for host, visits := range hosts {
		data.TopHosts = append(data.TopHosts, HostCount{Host: host, Visits: visits})
	}
	sort.Slice(data.TopHosts, func(i, j int) bool {
		if data.TopHosts[i].Visits != data.TopHosts[j].Visits {
			return data.TopHosts[i].Visits > data.TopHosts[j].Visits
		}
		return data.TopHosts[i].Host < data.TopHosts[j].Host
	})
	if topN > 0 && len(data.TopHosts) > topN {
		data.TopHosts = data.TopHosts[:topN]
	}

	return data, nil
}

// Print writes a human-readable report.
func (d *Data) Print(w io.Writer) {
	fmt.Fprintf(w, "Visited URLs: %d\n", d.Stats.Count)
	if d.Stats.LastImportTime > 0 {
		fmt.Fprintf(w, "Last import:  %s\n", formatMillis(d.Stats.LastImportTime))
	} else {
		fmt.Fprintf(w, "Last import:  never\n")
	}
	if d.Oldest > 0 {
		fmt.Fprintf(w, "Oldest visit: %s\n", formatMillis(d.Oldest))
		fmt.Fprintf(w, "Newest visit: %s\n", formatMillis(d.Newest))
	}

	if len(d.TopHosts) > 0 {
		fmt.Fprintf(w, "\nTop hosts:\n")
		for _, hc := range d.TopHosts {
			fmt.Fprintf(w, "  %-40s %d\n", hc.Host, hc.Visits)
		}
	}
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}
