package enums

// TokenKind distinguishes the two JWT flavors minted by the platform.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

func (k TokenKind) IsValid() bool {
	return k == TokenKindAccess || k == TokenKindRefresh
}
