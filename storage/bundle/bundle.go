// Package bundle implements deterministic TAR export/import of a closed set
// of stored cells by hash. The container format is TAR plus an optional
// JSON index; entries are named and validated by a cell's digest.Hash
// rather than an IPFS CID.
package bundle

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/stratumlabs/strata/digest"
	"github.com/stratumlabs/strata/storage"
)

// FormatVersion is the current bundle index schema version.
const FormatVersion = 1

// epoch0 is the fixed TAR header modtime used for every entry, keeping
// exported bundle bytes deterministic regardless of wall-clock time.
var epoch0 = time.Unix(0, 0).UTC()

// ExportOptions controls bundle export behavior.
type ExportOptions struct {
	// Labels is optional, non-authoritative metadata mapping names to hashes.
	Labels map[string]digest.Hash
	// IncludeIndex controls whether index.json is included.
	IncludeIndex bool
}

// Export writes a deterministic TAR bundle containing the blocks for the
// given hashes.
//
// The bundle bytes are deterministic: entry order is lexicographic by hash
// and TAR headers are normalized. All exported bytes are validated against
// their hashes.
func Export(ctx context.Context, w io.Writer, cas storage.CAS, hashes []digest.Hash, opts ExportOptions) error {
	if cas == nil {
		return fmt.Errorf("bundle: nil CAS")
	}

	uniq := make(map[string]digest.Hash, len(hashes))
	for _, h := range hashes {
		if h.IsZero() {
			return storage.ErrHashMismatch
		}
		uniq[h.String()] = h
	}

	hashStrings := make([]string, 0, len(uniq))
	for s := range uniq {
		hashStrings = append(hashStrings, s)
	}
	sort.Strings(hashStrings)

	tw := tar.NewWriter(w)

	blocks := make([]indexBlock, 0, len(hashStrings))
	for _, s := range hashStrings {
		h := uniq[s]
		b, err := cas.Get(ctx, h)
		if err != nil {
			_ = tw.Close()
			return err
		}
		if digest.Sum(b) != h {
			_ = tw.Close()
			return storage.ErrHashMismatch
		}

		entryPath := "blocks/" + h.String()
		if err := writeFile(tw, entryPath, b); err != nil {
			_ = tw.Close()
			return err
		}
		blocks = append(blocks, indexBlock{Hash: h.String(), Size: len(b)})
	}

	if opts.IncludeIndex {
		idx := indexJSON{
			Version: FormatVersion,
			Hash:    "sha3-256",
			Blocks:  blocks,
			Labels:  nil,
		}

		if len(opts.Labels) > 0 {
			keys := make([]string, 0, len(opts.Labels))
			for k := range opts.Labels {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			labels := make([]indexLabel, 0, len(keys))
			for _, k := range keys {
				if k == "" {
					_ = tw.Close()
					return fmt.Errorf("bundle: empty label key")
				}
				v := opts.Labels[k]
				if v.IsZero() {
					_ = tw.Close()
					return storage.ErrHashMismatch
				}
				labels = append(labels, indexLabel{Name: k, Hash: v.String()})
			}
			idx.Labels = labels
		}

		b, err := marshalCanonicalIndexJSON(idx)
		if err != nil {
			_ = tw.Close()
			return err
		}
		if err := writeFile(tw, "index.json", b); err != nil {
			_ = tw.Close()
			return err
		}
	}

	return tw.Close()
}

// ImportOptions controls bundle import behavior.
type ImportOptions struct {
	// IgnoreUnknown controls whether unknown TAR entries are ignored.
	//
	// Default (false) is fail-closed: unknown entries cause Import to return an error.
	IgnoreUnknown bool
}

// Import reads a bundle from r and imports all blocks into cas.
//
// Default behavior is fail-closed: unknown entries cause an error.
// Use ImportWithOptions to allow ignoring unknown entries.
func Import(ctx context.Context, r io.Reader, cas storage.CAS) error {
	return ImportWithOptions(ctx, r, cas, ImportOptions{})
}

// ImportWithOptions reads a bundle from r and imports all blocks into cas.
//
// It validates that each block's bytes match both the filename hash and the
// computed hash.
func ImportWithOptions(ctx context.Context, r io.Reader, cas storage.CAS, opts ImportOptions) error {
	if cas == nil {
		return fmt.Errorf("bundle: nil CAS")
	}

	tr := tar.NewReader(r)
	seen := map[string]struct{}{}

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		name := cleanTarPath(hdr.Name)
		if name == "" {
			return fmt.Errorf("bundle: invalid entry path: %q", hdr.Name)
		}

		if hdr.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", hdr.Typeflag, name)
		}

		// Non-authoritative metadata.
		if name == "index.json" || strings.HasPrefix(name, "manifests/") {
			_, _ = io.Copy(io.Discard, tr)
			continue
		}

		if !strings.HasPrefix(name, "blocks/") {
			if opts.IgnoreUnknown {
				_, _ = io.Copy(io.Discard, tr)
				continue
			}
			return fmt.Errorf("bundle: unknown entry: %s", name)
		}

		hashStr := strings.TrimPrefix(name, "blocks/")
		h, derr := digest.Parse(hashStr)
		if derr != nil {
			return storage.ErrHashMismatch
		}

		payload, rerr := io.ReadAll(tr)
		if rerr != nil {
			return rerr
		}
		if digest.Sum(payload) != h {
			return storage.ErrHashMismatch
		}

		key := h.String()
		if _, ok := seen[key]; ok {
			return fmt.Errorf("bundle: duplicate block entry: %s", key)
		}
		seen[key] = struct{}{}

		putHash, perr := cas.Put(ctx, payload)
		if perr != nil {
			return perr
		}
		if putHash != h {
			return storage.ErrHashMismatch
		}
	}
}

type indexJSON struct {
	Version int          `json:"version"`
	Hash    string       `json:"hash"`
	Blocks  []indexBlock `json:"blocks"`
	Labels  []indexLabel `json:"labels,omitempty"`
}

type indexBlock struct {
	Hash string `json:"hash"`
	Size int    `json:"size"`
}

type indexLabel struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

func marshalCanonicalIndexJSON(idx indexJSON) ([]byte, error) {
	// indexJSON is composed only of structs + slices; encoding/json will be deterministic.
	b, err := json.Marshal(idx)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		Uid:      0,
		Gid:      0,
		Uname:    "",
		Gname:    "",
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}

	parts := strings.Split(name, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == "." {
			return ""
		}
		if part == ".." {
			return ""
		}
		out = append(out, part)
	}
	return strings.Join(out, "/")
}
