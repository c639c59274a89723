package game

import "github.com/Iron-Ham/werewolf/internal/config"

// RoleType identifies a role variant.
type RoleType string

// Role variants.
const (
	Werewolf RoleType = "werewolf"
	Witch    RoleType = "witch"
	Seer     RoleType = "seer"
	Hunter   RoleType = "hunter"
	Villager RoleType = "villager"
)

// Faction is a win-condition side.
type Faction string

// Factions.
const (
	FactionGood     Faction = "good"
	FactionWerewolf Faction = "werewolf"
)

// Role is a seat's role. The capability flags only apply to the variants
// that own them: HasAntidote and HasPoison to the Witch, CanShoot to the
// Hunter. Each flag is single use and never restored.
type Role struct {
	Type        RoleType
	HasAntidote bool
	HasPoison   bool
	CanShoot    bool
}

// NewRole returns a fresh role of type t with its capabilities available.
func NewRole(t RoleType) Role {
	r := Role{Type: t}
	switch t {
	case Witch:
		r.HasAntidote = true
		r.HasPoison = true
	case Hunter:
		r.CanShoot = true
	}
	return r
}

// Name returns the display name.
func (r Role) Name() string {
	switch r.Type {
	case Werewolf:
		return "Werewolf"
	case Witch:
		return "Witch"
	case Seer:
		return "Seer"
	case Hunter:
		return "Hunter"
	case Villager:
		return "Villager"
	default:
		return string(r.Type)
	}
}

// Faction returns the role's side.
func (r Role) Faction() Faction {
	if r.Type == Werewolf {
		return FactionWerewolf
	}
	return FactionGood
}

// BuildRoles returns the unshuffled role multiset for counts.
func BuildRoles(counts config.RoleCounts) []Role {
	roles := make([]Role, 0, counts.Total())
	for _, rc := range []struct {
		t RoleType
		n int
	}{
		{Werewolf, counts.Werewolf},
		{Witch, counts.Witch},
		{Seer, counts.Seer},
		{Hunter, counts.Hunter},
		{Villager, counts.Villager},
	} {
		for range rc.n {
			roles = append(roles, NewRole(rc.t))
		}
	}
	return roles
}
