package fetcher

import (
	"net/url"
	"path"
	"strings"

	"github.com/pagesift/pagesift/models"
)

// excludedExtensions are file types that never contain extractable page
// content. Rejected before any network I/O.
var excludedExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".svg": {},
	".webp": {}, ".ico": {}, ".mp3": {}, ".mp4": {}, ".avi": {}, ".mov": {},
	".wmv": {}, ".flv": {}, ".mkv": {}, ".zip": {}, ".tar": {}, ".gz": {},
	".rar": {}, ".7z": {}, ".exe": {}, ".dmg": {}, ".iso": {}, ".pdf": {},
	".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".ppt": {}, ".pptx": {},
	".css": {}, ".js": {},
}

// NormalizeURL canonicalizes a URL so equivalent spellings compare equal:
// lowercased scheme and host, default ports and fragment stripped, trailing
// slash trimmed.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &models.ValidationError{Field: "url", Value: raw, Reason: "empty"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", &models.ValidationError{Field: "url", Value: raw, Reason: "unparseable"}
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &models.ValidationError{Field: "url", Value: raw, Reason: "scheme must be http or https"}
	}
	if u.Hostname() == "" {
		return "", &models.ValidationError{Field: "url", Value: raw, Reason: "missing host"}
	}

	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && !isDefaultPort(u.Scheme, port) {
		host += ":" + port
	}
	u.Host = host
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

// CheckScrapable rejects URLs whose path points at a known binary or asset
// file type.
func CheckScrapable(normalized string) error {
	u, err := url.Parse(normalized)
	if err != nil {
		return &models.ValidationError{Field: "url", Value: normalized, Reason: "unparseable"}
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if _, bad := excludedExtensions[ext]; bad {
		return &models.ValidationError{Field: "url", Value: normalized, Reason: "unsupported file extension " + ext}
	}
	return nil
}
