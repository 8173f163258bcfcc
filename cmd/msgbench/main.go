// Command msgbench measures assemble/validate latency for the dual-
// signature message pipeline, reporting p50/p95 over N repetitions. It is
// the Go counterpart of scripts/msg_timing.py's ad hoc timeit harness,
// expressed as a small benchmark-style CLI instead of a throwaway script.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"v2vfabric/internal/authority"
	"v2vfabric/internal/geo"
	"v2vfabric/internal/sigconv"
	"v2vfabric/internal/sigibs"
	"v2vfabric/internal/timecode"
	"v2vfabric/internal/transceiver"
	"v2vfabric/internal/wire"
)

func main() {
	assembleReps := flag.Int("assemble-reps", 10000, "repetitions for message assembly")
	validateReps := flag.Int("validate-reps", 1000, "repetitions for message validation")
	flag.Parse()

	clock, err := timecode.NewClock(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 500*time.Millisecond)
	if err != nil {
		panic(err)
	}

	now := time.Now().UTC()
	gufi := wire.NewGUFI()
	bbox := geo.BBox{West: -1, South: -1, East: 1, North: 1}

	tokenKeys, err := sigconv.GenerateKeyPair()
	if err != nil {
		panic(err)
	}
	rootParams, rootMaster, err := sigibs.Setup()
	if err != nil {
		panic(err)
	}
	identity, err := sigibs.Extract(gufi.String(), rootMaster)
	if err != nil {
		panic(err)
	}

	payload, err := wire.NewTokenPayload(clock, gufi, now.Add(-time.Minute), now.Add(time.Minute), bbox)
	if err != nil {
		panic(err)
	}
	sig, err := sigconv.Sign(tokenKeys.Secret, payload.Pack())
	if err != nil {
		panic(err)
	}
	var tok wire.Token
	tok.Payload = payload
	tok.Kid = 0
	copy(tok.Signature[:], sig)

	state := wire.StateUpdate{
		LatDeg: float32(rand.Float64()*180 - 90),
		LonDeg: float32(rand.Float64()*360 - 180),
		ToaUtc: float32(now.Unix()),
	}

	assembleTimes := make([]time.Duration, 0, *assembleReps)
	for i := 0; i < *assembleReps; i++ {
		start := time.Now()
		msgSig, err := sigibs.Sign(state.Pack(), identity)
		if err != nil {
			panic(err)
		}
		msg := wire.Message{Token: tok, Kid: 0, Payload: state, Sig: msgSig}
		_ = msg.Pack()
		assembleTimes = append(assembleTimes, time.Since(start))
	}
	report("assembly", assembleTimes)

	msgSig, err := sigibs.Sign(state.Pack(), identity)
	if err != nil {
		panic(err)
	}
	packed := wire.Message{Token: tok, Kid: 0, Payload: state, Sig: msgSig}.Pack()

	tokenKeysByKid := map[uint32]authority.TokenKeyPublic{
		0: {Kid: 0, Nbf: now.Add(-time.Minute), Exp: now.Add(time.Minute), Public: sigconv.KeyPair{Public: tokenKeys.Public}},
	}
	messageKeysByKid := map[uint32]authority.MessageKeyPublic{
		0: {Kid: 0, Nbf: now.Add(-time.Minute), Exp: now.Add(time.Minute), Params: rootParams},
	}
	loc := geo.Point{Lon: 0, Lat: 0}

	validateTimes := make([]time.Duration, 0, *validateReps)
	for i := 0; i < *validateReps; i++ {
		start := time.Now()
		msg, err := wire.UnpackMessage(packed)
		if err != nil {
			panic(err)
		}
		if err := transceiver.ValidateMsg(clock, messageKeysByKid, tokenKeysByKid, msg, now, loc); err != nil {
			panic(err)
		}
		validateTimes = append(validateTimes, time.Since(start))
	}
	report("validation", validateTimes)
}

func report(label string, samples []time.Duration) {
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	avg := total / time.Duration(len(sorted))
	p50 := sorted[len(sorted)*50/100]
	p95 := sorted[min(len(sorted)*95/100, len(sorted)-1)]

	fmt.Printf("%s: avg=%v p50=%v p95=%v (n=%d)\n", label, avg, p50, p95, len(sorted))
}
