package block

import "encoding/hex"

func hexString(b []byte) string { return hex.EncodeToString(b) }

func hexBytes(s string) ([]byte, error) { return hex.DecodeString(s) }
