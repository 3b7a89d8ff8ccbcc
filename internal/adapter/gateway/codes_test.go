package gateway

import (
	"strings"
	"testing"
)

func TestCodePredicates(t *testing.T) {
	if !IsApproved("00") || !IsApproved("10") {
		t.Fatal("00 and 10 are approvals")
	}
	if IsApproved("05") {
		t.Fatal("05 is not an approval")
	}
	if !IsPartial("10") || IsPartial("00") {
		t.Fatal("only 10 is a partial approval")
	}

	for _, code := range []string{"19", "68", "91"} {
		if !IsTimeoutSuspect(code) {
			t.Fatalf("%s must be treated as timeout suspect", code)
		}
	}
	for _, code := range []string{"00", "05", "94", "-1"} {
		if IsTimeoutSuspect(code) {
			t.Fatalf("%s is not a timeout suspect", code)
		}
	}

	if !IsDuplicate("94") || IsDuplicate("00") {
		t.Fatal("only 94 signals a duplicate")
	}
	if !IsInvalidAuthentication("A3") || IsInvalidAuthentication("00") {
		t.Fatal("only A3 signals invalid authentication")
	}
}

func TestIsInternal(t *testing.T) {
	for _, code := range []string{"-1", "-88", "-100"} {
		if !IsInternal(code) {
			t.Fatalf("%s is gateway-internal", code)
		}
	}
	for _, code := range []string{"00", "05", "A3", ""} {
		if IsInternal(code) {
			t.Fatalf("%s is not gateway-internal", code)
		}
	}
}

func TestMessageCatalog(t *testing.T) {
	cases := map[string]string{
		"00": "Transaccion aprobada",
		"05": "Transaccion rechazada",
		"10": "Aprobacion parcial",
		"68": "Respuesta recibida demasiado tarde",
		"91": "Emisor o switch fuera de servicio",
		"94": "Transaccion duplicada",
		"A3": "Autenticacion del tarjetahabiente invalida",
	}
	for code, want := range cases {
		if got := Message(code); got != want {
			t.Fatalf("Message(%s) = %q, want %q", code, got, want)
		}
	}
}

func TestMessageUnknownCode(t *testing.T) {
	got := Message("ZZ")
	if !strings.Contains(got, "ZZ") || !strings.HasPrefix(got, "codigo desconocido") {
		t.Fatalf("unexpected unknown-code message %q", got)
	}
}
