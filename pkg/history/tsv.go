package history

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/linkmark/linkmark/pkg/model"
	"github.com/linkmark/linkmark/pkg/store"
)

// Header is the first line of the portable export format.
const Header = "url\ttimestamp"

// Export serializes every store record as tab-separated text: a header
// line followed by one escaped record per line. Escaping guarantees one
// record per physical line regardless of what the URL contains.
func Export(ctx context.Context, st store.Store) (string, error) {
	records, err := st.ScanAll(ctx)
	if err != nil {
		return "", fmt.Errorf("export history: %w", err)
	}
	return ExportRecords(records), nil
}

// ExportRecords serializes an explicit record set in the export format.
func ExportRecords(records []model.VisitRecord) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')
	for _, rec := range records {
		b.WriteString(escapeField(rec.URL))
		b.WriteByte('\t')
		b.WriteString(strconv.FormatInt(rec.Timestamp, 10))
		b.WriteByte('\n')
	}
	return b.String()
}

// ImportText parses exported text and upserts each record. Malformed
// lines (fewer than two fields, unparseable timestamp, empty URL) and
// failed upserts are counted, never raised; the import always completes.
// This path is independent of the bulk import progress state.
func ImportText(ctx context.Context, st store.Store, text string) (imported, errCount int, err error) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i == 0 {
			continue // header
		}
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.SplitN(line, "\t", 2)
		if len(fields) < 2 {
			errCount++
			continue
		}

		url := unescapeField(fields[0])
		ts, perr := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
		if url == "" || perr != nil {
			errCount++
			continue
		}

		if perr := st.Put(ctx, url, ts); perr != nil {
			errCount++
			continue
		}
		imported++
	}
	return imported, errCount, nil
}

// escapeField makes a field single-line and tab-free. Backslash is
// escaped first so the transform is invertible.
func escapeField(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	return s
}

// unescapeField is the inverse of escapeField.
func unescapeField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
