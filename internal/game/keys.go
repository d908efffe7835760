package game

// Shared-store document keys. Every client derives the same key from the
// same identifier; nothing else namespaces the store.

func LobbyKey(id string) string { return "lobby/" + id }

func DuelKey(lobbyID string) string { return "duel/" + lobbyID }

// CodeKey indexes a join code to a lobby id. Codes are not globally unique:
// the index always points at the most recent lobby created with the code,
// and lookups additionally require status=waiting.
func CodeKey(code string) string { return "lobbycode/" + code }

func SessionKey(token string) string { return "session/" + token }

// PublicIndexKey holds the id->code index of public waiting lobbies.
const PublicIndexKey = "lobby-index/public"
