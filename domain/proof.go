package domain

import (
	"github.com/google/uuid"
	"github.com/reqstly/reqstly/model"
)

// ProofKind tags the credential store that produced an AuthProof.
type ProofKind string

const (
	ProofPassword ProofKind = "password"
	ProofPasskey  ProofKind = "passkey"
	ProofExternal ProofKind = "external"
)

// AuthProof is the tagged union handed to the identity resolver after a
// credential store verified a proof. Exactly one variant's fields are set,
// per Kind. Password and passkey stores already know the owning user;
// external proofs carry the verified claim set and are resolved (or linked)
// by email.
type AuthProof struct {
	Kind ProofKind

	// Password and passkey proofs.
	UserID uuid.UUID

	// Passkey proofs: the authenticator credential that signed.
	CredentialID string

	// External proofs: the verified OIDC claim set.
	Provider model.AuthProvider
	Subject  string
	Email    string
	Name     string
}

// PasswordProof builds the proof for a verified password login.
func PasswordProof(userID uuid.UUID) AuthProof {
	return AuthProof{Kind: ProofPassword, UserID: userID}
}

// PasskeyProof builds the proof for a verified WebAuthn assertion.
func PasskeyProof(userID uuid.UUID, credentialID string) AuthProof {
	return AuthProof{Kind: ProofPasskey, UserID: userID, CredentialID: credentialID}
}

// ExternalProof builds the proof for an already-validated federated login.
func ExternalProof(provider model.AuthProvider, subject, email, name string) AuthProof {
	return AuthProof{Kind: ProofExternal, Provider: provider, Subject: subject, Email: email, Name: name}
}
