package templates

import (
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
)

func artworkImageURL(name string) string {
	return fmt.Sprintf("/artwork/%s/image", url.PathEscape(name))
}

func panelURL(view string) string {
	return "/ui/" + url.PathEscape(view)
}

// balanceText renders a missing balance as unknown.
func balanceText(balance *int64) string {
	if balance == nil {
		return "unknown"
	}
	return strconv.FormatInt(*balance, 10) + " i"
}

// htmlWriter collects the first write error so components read top to
// bottom.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

// attr writes name="value" with value escaped.
func (h *htmlWriter) attr(name, value string) {
	h.raw(" " + name + "=\"" + templ.EscapeString(value) + "\"")
}
