package sigconv

import "testing"

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	msg := []byte("a valid token payload")

	sig, err := Sign(kp.Secret, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !Verify(kp.Public, msg, sig) {
		t.Fatalf("expected signature to verify")
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	kp, _ := GenerateKeyPair()
	msg := []byte("a valid token payload")
	sig, _ := Sign(kp.Secret, msg)

	tampered := append([]byte(nil), msg...)
	tampered[0] ^= 0x01
	if Verify(kp.Public, tampered, sig) {
		t.Fatalf("expected verification to fail on tampered message")
	}
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	kp, _ := GenerateKeyPair()
	msg := []byte("a valid token payload")
	sig, _ := Sign(kp.Secret, msg)

	tampered := append([]byte(nil), sig...)
	tampered[0] ^= 0x01
	if Verify(kp.Public, msg, tampered) {
		t.Fatalf("expected verification to fail on tampered signature")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	kp1, _ := GenerateKeyPair()
	kp2, _ := GenerateKeyPair()
	msg := []byte("a valid token payload")
	sig, _ := Sign(kp1.Secret, msg)

	if Verify(kp2.Public, msg, sig) {
		t.Fatalf("expected verification to fail under the wrong public key")
	}
}

func TestVerifyNeverPanicsOnMalformedInput(t *testing.T) {
	if Verify(nil, []byte("m"), nil) {
		t.Fatalf("expected false for empty key/sig")
	}
	if Verify([]byte{1, 2, 3}, []byte("m"), []byte{4, 5, 6}) {
		t.Fatalf("expected false for malformed key/sig lengths")
	}
}
