package user

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"
)

const (
	lowerChars   = "abcdefghijkmnpqrstuvwxyz"
	upperChars   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digitChars   = "23456789"
	specialChars = "!@#$%&*?"

	temporaryPasswordLen = 12
)

// GenerateTemporaryPassword returns a random password that satisfies the password policy.
func GenerateTemporaryPassword() (string, error) {
	all := lowerChars + upperChars + digitChars + specialChars
	pwd := make([]byte, 0, temporaryPasswordLen)
	for _, set := range []string{lowerChars, upperChars, digitChars, specialChars} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		pwd = append(pwd, c)
	}
	for len(pwd) < temporaryPasswordLen {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		pwd = append(pwd, c)
	}

	// shuffle so the guaranteed classes are not always first
	for i := len(pwd) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", errors.Wrap(err, "generating password")
		}
		pwd[i], pwd[j.Int64()] = pwd[j.Int64()], pwd[i]
	}
	return string(pwd), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, errors.Wrap(err, "generating password")
	}
	return set[n.Int64()], nil
}
