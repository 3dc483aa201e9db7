// File: internal/normalizer/aliases.go
// Description: Alias resolution for algorithm names. Tools name the same
// primitive a dozen ways ("AES-128", "aes128", "Rijndael"); the fixed table
// below folds them onto one family, optionally extracting a key size embedded
// in the name. Unmapped names pass through lower-cased and are tagged
// unrecognized so reporting can separate naming variance from real mismatch.
package normalizer

import (
	"regexp"
	"strconv"
	"strings"
)

// alias is one resolved algorithm identity.
type alias struct {
	family  string
	keySize int // 0 means the alias does not imply a size
}

// aliasTable maps compacted algorithm tokens (lower-cased, separators
// stripped) to their canonical identity. Entries that imply a key size carry
// it; "aes" alone does not.
var aliasTable = map[string]alias{
	// AES and friends
	"aes":       {family: "aes"},
	"rijndael":  {family: "aes"},
	"aes128":    {family: "aes", keySize: 128},
	"aes192":    {family: "aes", keySize: 192},
	"aes256":    {family: "aes", keySize: 256},
	"aes128gcm": {family: "aes", keySize: 128},
	"aes256gcm": {family: "aes", keySize: 256},
	"aes128cbc": {family: "aes", keySize: 128},
	"aes256cbc": {family: "aes", keySize: 256},

	// RSA
	"rsa":     {family: "rsa"},
	"rsa1024": {family: "rsa", keySize: 1024},
	"rsa2048": {family: "rsa", keySize: 2048},
	"rsa3072": {family: "rsa", keySize: 3072},
	"rsa4096": {family: "rsa", keySize: 4096},

	// Elliptic curves; curve names imply the field size.
	"ec":         {family: "ec"},
	"ecdsa":      {family: "ecdsa"},
	"ecdh":       {family: "ecdh"},
	"p256":       {family: "ec", keySize: 256},
	"secp256r1":  {family: "ec", keySize: 256},
	"prime256v1": {family: "ec", keySize: 256},
	"p384":       {family: "ec", keySize: 384},
	"secp384r1":  {family: "ec", keySize: 384},
	"p521":       {family: "ec", keySize: 521},
	"secp521r1":  {family: "ec", keySize: 521},
	"ed25519":    {family: "ed25519", keySize: 255},
	"curve25519": {family: "x25519", keySize: 255},
	"x25519":     {family: "x25519", keySize: 255},

	// Hashes
	"md5":       {family: "md5"},
	"sha":       {family: "sha-1"},
	"sha1":      {family: "sha-1"},
	"sha224":    {family: "sha-224"},
	"sha256":    {family: "sha-256"},
	"sha384":    {family: "sha-384"},
	"sha512":    {family: "sha-512"},
	"sha3256":   {family: "sha3-256"},
	"sha3512":   {family: "sha3-512"},
	"blake2b":   {family: "blake2b"},
	"blake2s":   {family: "blake2s"},
	"ripemd160": {family: "ripemd-160"},

	// MACs and KDFs
	"hmac":       {family: "hmac"},
	"hmacsha1":   {family: "hmac-sha-1"},
	"hmacsha256": {family: "hmac-sha-256"},
	"hmacsha512": {family: "hmac-sha-512"},
	"pbkdf2":     {family: "pbkdf2"},
	"bcrypt":     {family: "bcrypt"},
	"scrypt":     {family: "scrypt"},
	"argon2":     {family: "argon2"},
	"hkdf":       {family: "hkdf"},

	// Legacy ciphers
	"des":       {family: "des", keySize: 56},
	"desede":    {family: "3des"},
	"3des":      {family: "3des"},
	"tripledes": {family: "3des"},
	"rc4":       {family: "rc4"},
	"blowfish":  {family: "blowfish"},
	"camellia":  {family: "camellia"},

	// Stream ciphers / AEAD
	"chacha20":         {family: "chacha20", keySize: 256},
	"chacha20poly1305": {family: "chacha20-poly1305", keySize: 256},
	"poly1305":         {family: "poly1305"},

	// Signatures / misc
	"dsa":   {family: "dsa"},
	"dh":    {family: "dh"},
	"eddsa": {family: "eddsa"},

	// Protocols
	"tls":    {family: "tls"},
	"tls12":  {family: "tls"},
	"tls13":  {family: "tls"},
	"tlsv1":  {family: "tls"},
	"tlsv11": {family: "tls"},
	"tlsv12": {family: "tls"},
	"tlsv13": {family: "tls"},
	"ssl":    {family: "ssl"},
	"ssh":    {family: "ssh"},
	"ipsec":  {family: "ipsec"},
	"https":  {family: "tls"},
	"sslv3":  {family: "ssl"},
}

// sizedFamilies are families for which a trailing number in a name is a key
// size rather than part of the name ("rsa-2048" vs "sha-256").
var sizedFamilies = map[string]struct{}{
	"aes":      {},
	"rsa":      {},
	"dsa":      {},
	"dh":       {},
	"camellia": {},
	"blowfish": {},
	"hmac":     {},
}

// familySizeRe splits a compact token into a family prefix and trailing size.
var familySizeRe = regexp.MustCompile(`^([a-z]+)(\d{2,5})$`)

// separatorRe strips the separators tools sprinkle into algorithm names.
var separatorRe = regexp.MustCompile(`[\s_\-/.]+`)

// resolveAlgorithm folds a raw algorithm name onto its canonical family and
// any key size the name implies. recognized is false when the name missed the
// table entirely and passed through as-is.
func resolveAlgorithm(name string) (family string, keySize int, recognized bool) {
	token := compact(name)
	if token == "" {
		return "", 0, false
	}

	if a, ok := aliasTable[token]; ok {
		return a.family, a.keySize, true
	}

	// "rsa2048" style: a known sized family with the size glued on.
	if m := familySizeRe.FindStringSubmatch(token); m != nil {
		if a, ok := aliasTable[m[1]]; ok {
			if _, sized := sizedFamilies[a.family]; sized {
				size, _ := strconv.Atoi(m[2])
				return a.family, size, true
			}
		}
	}

	// Unmapped: pass through lower-cased, tagged unrecognized.
	return strings.ToLower(strings.TrimSpace(name)), 0, false
}

// compact lower-cases a name and strips separators so "AES-128", "aes_128"
// and "aes 128" all become "aes128".
func compact(name string) string {
	return separatorRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "")
}

// parseKeySize normalizes the many shapes key sizes arrive in: numbers,
// numeric strings, or strings with a unit suffix ("2048 bit"). Zero or
// negative sizes are treated as absent.
func parseKeySize(v interface{}) (int, bool) {
	switch size := v.(type) {
	case float64:
		if size > 0 {
			return int(size), true
		}
	case int:
		if size > 0 {
			return size, true
		}
	case string:
		s := strings.TrimSpace(strings.ToLower(size))
		s = strings.TrimSuffix(s, "bits")
		s = strings.TrimSuffix(s, "bit")
		s = strings.TrimSpace(s)
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}
