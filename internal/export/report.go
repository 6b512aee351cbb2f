package export

import (
	"fmt"
	"strings"
	"time"
)

// renderReport produces the human-readable integrity report packed next to
// the manifest. It is written for a reader with no tooling beyond a SHA-256
// utility.
func renderReport(m *Manifest, composite string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Evidence Export Integrity Report\n\n")
	fmt.Fprintf(&sb, "- **Package:** %s\n", m.PackageName)
	fmt.Fprintf(&sb, "- **Case reference:** %s\n", m.CaseRef)
	fmt.Fprintf(&sb, "- **Exported:** %s\n", m.ExportedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "- **Exported by:** %s\n", m.ExportedBy)
	fmt.Fprintf(&sb, "- **Evidence items requested:** %d\n", len(m.EvidenceIDs))
	fmt.Fprintf(&sb, "- **Evidence items found:** %d\n", m.EvidenceFound)
	fmt.Fprintf(&sb, "- **Files packed:** %d\n", m.FileCount)
	fmt.Fprintf(&sb, "- **Total uncompressed bytes:** %d\n", m.TotalBytes)
	fmt.Fprintf(&sb, "- **Size tier:** %s\n\n", m.SizeTier)

	fmt.Fprintf(&sb, "## Composite hash\n\n")
	fmt.Fprintf(&sb, "`%s`\n\n", composite)
	sb.WriteString("The composite hash is the SHA-256 of the concatenation of every packed\n")
	sb.WriteString("file's SHA-256 hex digest, ordered by archive path. Recompute it from\n")
	sb.WriteString("manifest.json to confirm no packed file was altered.\n\n")

	fmt.Fprintf(&sb, "## Manifest hash\n\n")
	fmt.Fprintf(&sb, "`%s`\n\n", m.ManifestSHA256)
	sb.WriteString("The manifest hash is the SHA-256 of manifest.json serialized with the\n")
	sb.WriteString("manifest_sha256 field empty.\n\n")

	fmt.Fprintf(&sb, "## Packed files\n\n")
	fmt.Fprintf(&sb, "| Path | SHA-256 | Bytes | Type |\n")
	fmt.Fprintf(&sb, "|------|---------|-------|------|\n")
	for _, pf := range m.Files {
		fmt.Fprintf(&sb, "| %s | %s | %d | %s |\n", pf.Path, pf.SHA256, pf.SizeBytes, pf.Type)
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "## Verification steps\n\n")
	sb.WriteString("1. Hash each packed file and compare against manifest.json.\n")
	sb.WriteString("2. Recompute the composite hash from the manifest digests.\n")
	sb.WriteString("3. Replay ledger_extract.jsonl: each line's prev_hash must equal the\n")
	sb.WriteString("   SHA-256 of the preceding line's raw bytes in the source ledger.\n")
	return sb.String()
}
