package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":      DefaultLocale,
		"zh":    LocaleZH,
		"zh-TW": LocaleZH,
		"EN-gb": LocaleEN,
		"fr":    LocaleFR,
		"de-DE": DefaultLocale,
	}
	for input, want := range cases {
		if got := Normalize(input); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCatalogsShareKeys(t *testing.T) {
	for key := range messagesFR {
		if _, ok := messagesEN[key]; !ok {
			t.Fatalf("key %s missing in en-US", key)
		}
		if _, ok := messagesZH[key]; !ok {
			t.Fatalf("key %s missing in zh-CN", key)
		}
	}
}

func TestTFallsBackToKey(t *testing.T) {
	if got := T(LocaleEN, "error.unknown_key"); got != "error.unknown_key" {
		t.Fatalf("unexpected fallback: %s", got)
	}
	if got := Sprintf(LocaleEN, "error.admission_denied", 3); got != "Not enough availability for this day, 3 remaining" {
		t.Fatalf("unexpected sprintf: %s", got)
	}
}

func TestResolveLocale(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	if got := ResolveLocale(c); got != LocaleEN {
		t.Fatalf("expected query locale, got %s", got)
	}

	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	if got := ResolveLocale(c); got != LocaleZH {
		t.Fatalf("expected header locale, got %s", got)
	}

	c.Set(ContextLocaleKey, LocaleFR)
	if got := ResolveLocale(c); got != LocaleFR {
		t.Fatalf("expected context locale, got %s", got)
	}
}
