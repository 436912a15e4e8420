// sign-action signs an engine action payload with a private key and prints
// the full signed envelope, ready to POST to the gateway.
//
// Usage:
//
//	sign-action -key 0xabc... -action place_order -payload '{"market":0,"outcome":"yes","bid":true,"price":50,"qty":10}'
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/crypto"
)

func main() {
	keyHex := flag.String("key", "", "hex private key (with or without 0x)")
	action := flag.String("action", "", "action name, e.g. place_order")
	payload := flag.String("payload", "", "JSON payload to sign")
	flag.Parse()

	if *keyHex == "" || *action == "" || *payload == "" {
		flag.Usage()
		log.Fatal("key, action and payload are required")
	}

	signer, err := crypto.FromPrivateKeyHex(*keyHex)
	if err != nil {
		log.Fatalf("key: %v", err)
	}

	raw := json.RawMessage(*payload)
	if !json.Valid(raw) {
		log.Fatalf("payload is not valid JSON")
	}

	sig, err := signer.SignAction(raw)
	if err != nil {
		log.Fatalf("sign: %v", err)
	}

	envelope := map[string]any{
		"action":    *action,
		"payload":   raw,
		"signature": "0x" + hex.EncodeToString(sig),
	}
	out, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		log.Fatalf("encode: %v", err)
	}

	fmt.Printf("signer: %s\n%s\n", signer.Address().Hex(), out)
}
