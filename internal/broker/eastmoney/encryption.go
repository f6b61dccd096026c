package eastmoney

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// rsaPublicKeyPEM is the vendor's fixed RSA public key. Passwords must
// be encrypted with it (PKCS#1 v1.5) before submission.
const rsaPublicKeyPEM = `-----BEGIN PUBLIC KEY-----
MIGfMA0GCSqGSIb3DQEBAQUAA4GNADCBiQKBgQDHdsyxT66pDG4p73yope7jxA92
c0AT4qIJ/xtbBcHkFPK77upnsfDTJiVEuQDH+MiMeb+XhCLNKZGp0yaUU6GlxZdp
+nLW8b7Kmijr3iepaDhcbVTsYBWchaWUXauj9Lrhz58/6AE/NF0aMolxIGpsi+ST
2hSHPu3GSXMdhPCkWQIDAQAB
-----END PUBLIC KEY-----`

// EncryptPassword encrypts a plaintext password with the vendor's RSA
// public key and returns the base64-encoded ciphertext. The key is
// compiled in, so any failure here is a configuration fault.
func EncryptPassword(password string) (string, error) {
	block, _ := pem.Decode([]byte(rsaPublicKeyPEM))
	if block == nil {
		return "", fmt.Errorf("decoding vendor public key PEM")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return "", fmt.Errorf("parsing vendor public key: %w", err)
	}

	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return "", fmt.Errorf("vendor public key is not RSA")
	}

	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, rsaPub, []byte(password))
	if err != nil {
		return "", fmt.Errorf("encrypting password: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}
