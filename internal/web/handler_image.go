package web

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/vbonduro/quickcloset/internal/service"
)

// allowedImageTypes is the set of MIME types accepted for item images.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniff spec (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

var errInvalidDataURL = errors.New("invalid data URL")

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// parseDataURL splits a "data:<mime>[;base64],<payload>" string into its
// declared MIME type and decoded bytes.
func parseDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return "", nil, errInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errInvalidDataURL
	}

	params := strings.Split(meta, ";")
	mimeType := strings.ToLower(strings.TrimSpace(params[0]))
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	if !isBase64 {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, errInvalidDataURL
		}
		return mimeType, []byte(decoded), nil
	}

	// Browsers sometimes wrap or drop padding; accept both.
	payload = strings.Join(strings.Fields(payload), "")
	data, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	if err != nil {
		return "", nil, errInvalidDataURL
	}
	return mimeType, data, nil
}

// decodeImage decodes an item's image_url and checks the bytes are an image
// we are willing to serve. The sniffed type wins over the declared one.
func decodeImage(s string) (string, []byte, error) {
	_, data, err := parseDataURL(s)
	if err != nil {
		return "", nil, err
	}
	mimeType, ok := allowedImageMIME(data)
	if !ok {
		return "", nil, errors.New("unsupported image format")
	}
	return mimeType, data, nil
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	item, err := s.service.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err, "failed to get item")
		return
	}

	mimeType, data, err := decodeImage(item.ImageURL)
	if err != nil {
		jsonError(w, http.StatusNotFound, "item has no image")
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=60")
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write image failed", "item_id", item.ID, "error", err)
	}
}

type suggestRequest struct {
	ImageURL string `json:"image_url"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ImageURL == "" {
		jsonError(w, http.StatusBadRequest, "image_url required")
		return
	}

	mimeType, data, err := decodeImage(req.ImageURL)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	suggestion, err := s.service.SuggestTags(r.Context(), data, mimeType)
	if err != nil {
		if errors.Is(err, service.ErrSuggestionsDisabled) {
			jsonError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.logger.Error("suggest tags failed", "error", err)
		jsonError(w, http.StatusBadGateway, "failed to suggest tags")
		return
	}
	jsonResponse(w, http.StatusOK, suggestion)
}
