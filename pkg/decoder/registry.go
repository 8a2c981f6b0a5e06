package decoder

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Registry holds the process-wide set of registered plugins and the
// parsed PreferredDecoders list, and dispatches a path or stream to the
// right one (§4.B).
type Registry struct {
	plugins     []Plugin
	byName      map[string]Plugin
	preferences []preference
	// useMIMEMagic mirrors the UseMimeMagic configuration flag: when set,
	// FindDecoder sniffs a local file's content to obtain a MIME type if
	// the caller didn't supply one.
	useMIMEMagic bool
}

// NewRegistry returns an empty registry. Register plugins with Register,
// then call SetPreferences once configuration is loaded.
func NewRegistry(useMIMEMagic bool) *Registry {
	return &Registry{
		byName:       make(map[string]Plugin),
		useMIMEMagic: useMIMEMagic,
	}
}

// Register adds a plugin, calling its Init method if it implements
// Initializer. Call once per plugin at startup, in the order plugins
// should be tried by default.
func (r *Registry) Register(p Plugin) error {
	if init, ok := p.(Initializer); ok {
		if err := init.Init(); err != nil {
			return err
		}
	}
	r.plugins = append(r.plugins, p)
	r.byName[strings.ToLower(p.Name())] = p
	return nil
}

// Close calls Destroy on every plugin that implements Destroyer.
func (r *Registry) Close() error {
	var firstErr error
	for _, p := range r.plugins {
		if d, ok := p.(Destroyer); ok {
			if err := d.Destroy(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// SetPreferences parses a PreferredDecoders configuration list against the
// currently registered plugins. Entries that fail to parse are skipped.
func (r *Registry) SetPreferences(specs []string) {
	names := r.names()
	r.preferences = r.preferences[:0]
	for _, s := range specs {
		if pref, ok := parsePreference(s, names); ok {
			r.preferences = append(r.preferences, pref)
		}
	}
}

func (r *Registry) names() []string {
	names := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		names[i] = p.Name()
	}
	return names
}

func (r *Registry) pluginsByNames(names []string) []Plugin {
	out := make([]Plugin, 0, len(names))
	for _, n := range names {
		if p, ok := r.byName[strings.ToLower(n)]; ok {
			out = append(out, p)
		}
	}
	return out
}

// findExtnDecoder returns the first plugin in candidates whose
// OurFormatExt accepts extn, or nil. Resolves the design note's open
// question: the original returns a pointer to the first match in the
// supplied order, never an index.
func findExtnDecoder(candidates []Plugin, extn string) Plugin {
	for _, p := range candidates {
		if p.OurFormatExt(extn) {
			return p
		}
	}
	return nil
}

// findMIMEDecoder returns the first plugin in candidates whose
// OurFormatMIME accepts mime, or nil.
func findMIMEDecoder(candidates []Plugin, mime string) Plugin {
	for _, p := range candidates {
		if p.OurFormatMIME(mime) {
			return p
		}
	}
	return nil
}

// FindDecoder selects a plugin for a local file by extension and/or MIME
// type, following the preference list and falling back to the default
// (registration order) list. path may be empty if mime is known; mime may
// be empty to rely on the extension or (if useMIMEMagic) content sniffing.
func (r *Registry) FindDecoder(path, mime string) Plugin {
	extn := extOf(path)

	var typ, subtype string
	haveType := false

	for _, pref := range r.preferences {
		if pref.subtype == "" {
			if extn == "" || !strings.EqualFold(pref.typ, extn) {
				continue
			}
			if p := findExtnDecoder(r.pluginsByNames(pref.names), extn); p != nil {
				return p
			}
			continue
		}

		if !haveType {
			switch {
			case r.useMIMEMagic && mime == "" && path != "":
				mime = sniffFileMIME(path)
				typ, subtype = splitMIME(mime)
			case mime != "":
				typ, subtype = splitMIME(mime)
			default:
				typ, subtype = "", ""
			}
			haveType = true
		}

		if !strings.EqualFold(pref.typ, typ) || !strings.EqualFold(pref.subtype, subtype) {
			continue
		}
		if p := findMIMEDecoder(r.pluginsByNames(pref.names), mime); p != nil {
			return p
		}
	}

	if mime != "" {
		if p := findMIMEDecoder(r.plugins, mime); p != nil {
			return p
		}
	}
	if extn != "" {
		if p := findExtnDecoder(r.plugins, extn); p != nil {
			return p
		}
	}
	return nil
}

// IsSoundFile reports whether path is handled by some registered plugin,
// by extension or, with MIME magic enabled, by the file's sniffed MIME
// type.
func (r *Registry) IsSoundFile(path string) bool {
	return r.FindDecoder(path, "") != nil
}

// FindDecoderByContent selects a plugin by sniffing a stream's content:
// MIME type first if the stream reports one, then each plugin's CanDecode
// in registration order. It requires at least 512 bytes of peekable data.
func (r *Registry) FindDecoderByContent(s Stream) Plugin {
	peek, err := s.Peek(8096)
	if err != nil || len(peek) < 512 {
		return nil
	}

	if mime := s.MIMEType(); mime != "" {
		if p := findMIMEDecoder(r.plugins, mime); p != nil {
			return p
		}
	}

	for _, p := range r.plugins {
		if p.CanDecode(peek) {
			return p
		}
	}
	return nil
}

func extOf(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimPrefix(ext, ".")
}

// sniffFileMIME opens path and detects its content type via the first
// 512 bytes. No third-party MIME-sniffing library appears anywhere in the
// example pack, so this one call uses the standard library's
// http.DetectContentType rather than inventing a dependency.
func sniffFileMIME(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	return http.DetectContentType(buf[:n])
}
