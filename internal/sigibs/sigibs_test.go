package sigibs

import "testing"

func TestSignVerifyRoundTrip(t *testing.T) {
	params, master, err := Setup()
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	id, err := Extract("gufi:vehicle-1", master)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	msg := []byte("a state update payload")
	sig, err := Sign(msg, id)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if !Verify(params, "gufi:vehicle-1", msg, sig) {
		t.Fatalf("expected signature to verify")
	}
}

func TestVerifyRejectsWrongIdentity(t *testing.T) {
	params, master, _ := Setup()
	id, _ := Extract("gufi:vehicle-1", master)
	msg := []byte("a state update payload")
	sig, _ := Sign(msg, id)

	if Verify(params, "gufi:vehicle-2", msg, sig) {
		t.Fatalf("expected verification to fail under a different identity")
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	params, master, _ := Setup()
	id, _ := Extract("gufi:vehicle-1", master)
	msg := []byte("a state update payload")
	sig, _ := Sign(msg, id)

	if Verify(params, "gufi:vehicle-1", []byte("a different payload"), sig) {
		t.Fatalf("expected verification to fail on tampered message")
	}
}

func TestVerifyRejectsWrongRoot(t *testing.T) {
	params1, _, _ := Setup()
	_, master2, _ := Setup()
	id, _ := Extract("gufi:vehicle-1", master2)
	msg := []byte("a state update payload")
	sig, _ := Sign(msg, id)

	if Verify(params1, "gufi:vehicle-1", msg, sig) {
		t.Fatalf("expected verification to fail against a foreign root")
	}
}

func TestVerifyRejectsForeignSigningKey(t *testing.T) {
	params, master, _ := Setup()
	id1, _ := Extract("gufi:vehicle-1", master)
	id2, _ := Extract("gufi:vehicle-2", master)
	msg := []byte("a state update payload")

	sig1, _ := Sign(msg, id1)
	// splice id2's vouched signing public key (S2) into id1's message
	// signature, keeping id1's S1 and vouch (S3)
	forged := sig1
	forged.S2 = func() [PublicKeyElementSize]byte {
		s, _ := Sign(msg, id2)
		return s.S2
	}()

	if Verify(params, "gufi:vehicle-1", msg, forged) {
		t.Fatalf("expected verification to fail when splicing in another identity's signing key")
	}
}

func TestVerifyNeverPanicsOnMalformedInput(t *testing.T) {
	params, _, _ := Setup()
	var zero Signature
	if Verify(params, "gufi:vehicle-1", []byte("m"), zero) {
		t.Fatalf("expected false for zero-valued signature")
	}

	var garbage Signature
	for i := range garbage.S1 {
		garbage.S1[i] = 0xff
	}
	for i := range garbage.S2 {
		garbage.S2[i] = 0xff
	}
	for i := range garbage.S3 {
		garbage.S3[i] = 0xff
	}
	if Verify(params, "gufi:vehicle-1", []byte("m"), garbage) {
		t.Fatalf("expected false for garbage-filled signature")
	}
}

func TestExtractProducesDistinctKeysPerIdentity(t *testing.T) {
	_, master, _ := Setup()
	id1, _ := Extract("gufi:vehicle-1", master)
	id2, _ := Extract("gufi:vehicle-1", master)

	sig1, _ := Sign([]byte("m"), id1)
	sig2, _ := Sign([]byte("m"), id2)
	if sig1.Equal(sig2) {
		t.Fatalf("expected independently extracted keys to produce distinct signatures")
	}
}
