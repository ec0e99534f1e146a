package game

// Role is the outcome role a participant finishes a match with.
type Role string

const (
	RoleWinner      Role = "winner"
	RoleLoser       Role = "loser"
	RoleTop3        Role = "top3"
	RoleParticipant Role = "participant"
)

// MatchRewards maps a format and outcome role to the coins paid to each
// participant holding that role.
var MatchRewards = map[Format]map[Role]int64{
	Format1v1: {
		RoleWinner: 500,
		RoleLoser:  100,
	},
	Format2v2: {
		RoleWinner: 400,
		RoleLoser:  100,
	},
	Format4v4: {
		RoleWinner: 300,
		RoleLoser:  75,
	},
	FormatGauntlet: {
		RoleWinner:      1000,
		RoleParticipant: 150,
	},
	FormatRoyalRumble: {
		RoleWinner:      2000,
		RoleTop3:        500,
		RoleParticipant: 100,
	},
}

// Reward returns the payout for a role in a format, zero when the format has
// no such role.
func Reward(f Format, r Role) int64 {
	return MatchRewards[f][r]
}

// Roles returns the roles a format pays out, winner first.
func (f Format) Roles() []Role {
	switch f {
	case Format1v1, Format2v2, Format4v4:
		return []Role{RoleWinner, RoleLoser}
	case FormatGauntlet:
		return []Role{RoleWinner, RoleParticipant}
	case FormatRoyalRumble:
		return []Role{RoleWinner, RoleTop3, RoleParticipant}
	}
	return nil
}
