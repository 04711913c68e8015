package auth

import (
	"testing"
)

func TestPasswordHashing(t *testing.T) {
	testCases := []struct {
		name     string
		password string
	}{
		{
			name:     "Common password",
			password: "password123",
		},
		{
			name:     "Empty password",
			password: "",
		},
		{
			name:     "Long password",
			password: "thisissuperlongpasswordwithmanycharactersandnumbers123456789!@#$%^&*()",
		},
		{
			name:     "Special characters",
			password: "p@$$w0rd!#%&*()_+",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			hash, err := HashPassword(tc.password)
			if err != nil {
				t.Fatalf("HashPassword returned an error: %v", err)
			}

			if hash == "" {
				t.Fatal("HashPassword returned an empty hash")
			}

			if hash == tc.password {
				t.Fatal("Hash is the same as the original password")
			}

			if !CheckPasswordHash(tc.password, hash) {
				t.Fatal("CheckPasswordHash returned false for a valid password/hash pair")
			}

			wrongPassword := tc.password + "wrong"
			if CheckPasswordHash(wrongPassword, hash) {
				t.Fatal("CheckPasswordHash returned true for an invalid password/hash pair")
			}
		})
	}
}
