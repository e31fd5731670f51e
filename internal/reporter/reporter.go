package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fenilsonani/dupsweep/internal/scanner"
	"github.com/fenilsonani/dupsweep/internal/ui/styles"
	"github.com/fenilsonani/dupsweep/pkg/utils"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

// ParseFormat validates a format name
func ParseFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatTable, FormatJSON, FormatYAML, FormatSummary:
		return f, nil
	case "":
		return FormatSummary, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", name)
	}
}

// Options tunes report rendering
type Options struct {
	Verbose bool // list every warning instead of only counting them
}

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
	opts   Options
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat, opts Options) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
		opts:   opts,
	}
}

// Report renders scan results without modifying them
func (r *Reporter) Report(result *scanner.ScanResult) error {
	switch r.format {
	case FormatTable:
		return r.reportTable(result)
	case FormatJSON:
		return r.reportJSON(result)
	case FormatYAML:
		return r.reportYAML(result)
	case FormatSummary:
		return r.reportSummary(result)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// Member status labels
const (
	StatusKeep = "keep"
	StatusDup  = "duplicate"
	StatusLink = "link"
)

// MemberStatus returns the status label of member i of a group
func MemberStatus(group scanner.DuplicateGroup, i int) string {
	switch {
	case i == 0:
		return StatusKeep
	case group.LinkedTo(i) >= 0:
		return StatusLink
	default:
		return StatusDup
	}
}

func marker(status string) string {
	switch status {
	case StatusKeep:
		return styles.KeepMarker
	case StatusLink:
		return styles.LinkMarker
	default:
		return styles.DupMarker
	}
}

// FormatGroup renders one group with 1-based member numbers
func FormatGroup(index, total int, group scanner.DuplicateGroup) string {
	var b strings.Builder

	header := fmt.Sprintf("Group %d/%d", index, total)
	fmt.Fprintf(&b, "%s  %s x %d  %s\n",
		styles.TitleStyle.Render(header),
		styles.FileSizeStyle.Render(utils.FormatBytes(group.Size)),
		len(group.Files),
		styles.DigestStyle.Render(group.Digest))

	for i, file := range group.Files {
		status := MemberStatus(group, i)
		line := fmt.Sprintf("  %2d. %s %s", i+1, marker(status), styles.FilePathStyle.Render(file.Path))
		if status == StatusLink {
			line += styles.DimStyle.Render(fmt.Sprintf("  (same file as %d)", group.LinkedTo(i)+1))
		}
		b.WriteString(line + "\n")
	}

	return b.String()
}

// reportSummary generates the default human readable report
func (r *Reporter) reportSummary(result *scanner.ScanResult) error {
	if len(result.Groups) == 0 {
		fmt.Fprintln(r.writer, styles.SuccessStyle.Render("No duplicate files found."))
	}

	for i, group := range result.Groups {
		fmt.Fprintln(r.writer, FormatGroup(i+1, len(result.Groups), group))
	}

	summary := result.Summary()
	fmt.Fprintln(r.writer, styles.TitleStyle.Render("=== Duplicate Summary ==="))
	fmt.Fprintf(r.writer, "Duplicate groups: %d\n", summary.Groups)
	fmt.Fprintf(r.writer, "Duplicate files:  %d\n", summary.DuplicateFiles)
	fmt.Fprintf(r.writer, "Reclaimable:      %s\n", styles.FileSizeStyle.Render(utils.FormatBytes(summary.Reclaimable)))
	fmt.Fprintf(r.writer, "Files scanned:    %d (%s) in %s\n",
		result.FilesScanned, utils.FormatBytes(result.BytesScanned), result.Duration.Round(time.Millisecond))

	fmt.Fprint(r.writer, FormatWarnings(result.Errors, r.opts.Verbose))

	return nil
}

// FormatWarnings renders the count of paths skipped during the scan, listing
// them when verbose. It returns "" when there were none.
func FormatWarnings(errs []*scanner.PathError, verbose bool) string {
	if len(errs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.WarningStyle.Render(fmt.Sprintf("Warnings: %d", len(errs))) + "\n")
	if verbose {
		for _, e := range errs {
			fmt.Fprintf(&b, "  %s\n", styles.DimStyle.Render(e.Error()))
		}
	} else {
		b.WriteString(styles.HelpStyle.Render("  (use --verbose to list them)") + "\n")
	}
	return b.String()
}

// reportTable generates a table report
func (r *Reporter) reportTable(result *scanner.ScanResult) error {
	fmt.Fprintf(r.writer, "%-5s | %-9s | %-10s | %-16s | %s\n", "Group", "Status", "Size", "Digest", "Path")
	fmt.Fprintf(r.writer, "%s\n", strings.Repeat("-", 100))

	for i, group := range result.Groups {
		for j, file := range group.Files {
			fmt.Fprintf(r.writer, "%-5d | %-9s | %-10s | %-16s | %s\n",
				i+1,
				MemberStatus(group, j),
				utils.FormatBytes(file.Size),
				group.Digest,
				file.Path)
		}
	}

	summary := result.Summary()
	fmt.Fprintf(r.writer, "%s\n", strings.Repeat("-", 100))
	fmt.Fprintf(r.writer, "Total: %d groups, %d duplicate files, %s reclaimable\n",
		summary.Groups, summary.DuplicateFiles, utils.FormatBytes(summary.Reclaimable))
	if len(result.Errors) > 0 {
		fmt.Fprintf(r.writer, "Warnings: %d\n", len(result.Errors))
	}

	return nil
}

type fileReport struct {
	Path    string    `json:"path" yaml:"path"`
	Status  string    `json:"status" yaml:"status"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
}

type groupReport struct {
	Digest        string       `json:"digest" yaml:"digest"`
	Size          int64        `json:"size" yaml:"size"`
	SizeFormatted string       `json:"size_formatted" yaml:"size_formatted"`
	Reclaimable   int64        `json:"reclaimable" yaml:"reclaimable"`
	Files         []fileReport `json:"files" yaml:"files"`
}

type warningReport struct {
	Path  string `json:"path" yaml:"path"`
	Stage string `json:"stage" yaml:"stage"`
	Error string `json:"error" yaml:"error"`
}

type document struct {
	Timestamp            string          `json:"timestamp" yaml:"timestamp"`
	FilesScanned         int             `json:"files_scanned" yaml:"files_scanned"`
	BytesScanned         int64           `json:"bytes_scanned" yaml:"bytes_scanned"`
	Duration             string          `json:"duration" yaml:"duration"`
	Groups               int             `json:"groups" yaml:"groups"`
	DuplicateFiles       int             `json:"duplicate_files" yaml:"duplicate_files"`
	Reclaimable          int64           `json:"reclaimable" yaml:"reclaimable"`
	ReclaimableFormatted string          `json:"reclaimable_formatted" yaml:"reclaimable_formatted"`
	DuplicateGroups      []groupReport   `json:"duplicate_groups" yaml:"duplicate_groups"`
	Warnings             []warningReport `json:"warnings" yaml:"warnings"`
}

func buildDocument(result *scanner.ScanResult) document {
	summary := result.Summary()
	doc := document{
		Timestamp:            time.Now().Format(time.RFC3339),
		FilesScanned:         result.FilesScanned,
		BytesScanned:         result.BytesScanned,
		Duration:             result.Duration.String(),
		Groups:               summary.Groups,
		DuplicateFiles:       summary.DuplicateFiles,
		Reclaimable:          summary.Reclaimable,
		ReclaimableFormatted: utils.FormatBytes(summary.Reclaimable),
		DuplicateGroups:      make([]groupReport, 0, len(result.Groups)),
		Warnings:             make([]warningReport, 0, len(result.Errors)),
	}

	for _, group := range result.Groups {
		g := groupReport{
			Digest:        group.Digest,
			Size:          group.Size,
			SizeFormatted: utils.FormatBytes(group.Size),
			Reclaimable:   group.Reclaimable(),
			Files:         make([]fileReport, 0, len(group.Files)),
		}
		for i, file := range group.Files {
			g.Files = append(g.Files, fileReport{
				Path:    file.Path,
				Status:  MemberStatus(group, i),
				ModTime: file.ModTime,
			})
		}
		doc.DuplicateGroups = append(doc.DuplicateGroups, g)
	}

	for _, e := range result.Errors {
		doc.Warnings = append(doc.Warnings, warningReport{
			Path:  e.Path,
			Stage: string(e.Stage),
			Error: e.Err.Error(),
		})
	}

	return doc
}

// reportJSON generates a JSON report
func (r *Reporter) reportJSON(result *scanner.ScanResult) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildDocument(result))
}

// reportYAML generates a YAML report
func (r *Reporter) reportYAML(result *scanner.ScanResult) error {
	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(buildDocument(result))
}

// SaveToFile saves the report to a file
func SaveToFile(result *scanner.ScanResult, path string, format OutputFormat, opts Options) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	reporter := New(file, format, opts)
	if err := reporter.Report(result); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return file.Close()
}
