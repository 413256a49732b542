package wallet

import "testing"

type fakeTx struct {
	hash string
}

func (f fakeTx) Hash() string { return f.hash }

func TestSignAndVerifyRoundTrip(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New: unexpected error: %s", err)
	}

	tx := fakeTx{hash: "aa"}
	sig, err := w.Sign(tx)
	if err != nil {
		t.Fatalf("Sign: unexpected error: %s", err)
	}

	if !Verify(w.PublicKey, tx.Hash(), sig) {
		t.Errorf("expected signature to verify")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	w1, err := New()
	if err != nil {
		t.Fatalf("New: unexpected error: %s", err)
	}
	w2, err := New()
	if err != nil {
		t.Fatalf("New: unexpected error: %s", err)
	}

	tx := fakeTx{hash: "bb"}
	sig, err := w1.Sign(tx)
	if err != nil {
		t.Fatalf("Sign: unexpected error: %s", err)
	}

	if Verify(w2.PublicKey, tx.Hash(), sig) {
		t.Errorf("expected signature under a different key to fail verification")
	}
}

func TestVerifyRejectsMalformedSignature(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New: unexpected error: %s", err)
	}
	if Verify(w.PublicKey, "aa", "not-hex-signature!!") {
		t.Errorf("expected malformed signature to fail verification")
	}
}

func TestAddressIsDeterministic(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New: unexpected error: %s", err)
	}
	if got := AddressFromPublicKey(w.PublicKey); got != w.Address {
		t.Errorf("address derivation is not deterministic: got %s, want %s", got, w.Address)
	}
}
