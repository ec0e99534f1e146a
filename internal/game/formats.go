package game

import (
	"fmt"
	"strings"
)

// Format is a match format.
type Format string

const (
	Format1v1         Format = "1v1"
	Format2v2         Format = "2v2"
	Format4v4         Format = "4v4"
	FormatGauntlet    Format = "gauntlet"
	FormatRoyalRumble Format = "royalrumble"
)

// Formats lists every supported format.
var Formats = []Format{Format1v1, Format2v2, Format4v4, FormatGauntlet, FormatRoyalRumble}

// ParseFormat accepts a format name or its command alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1v1", "chall", "challenge":
		return Format1v1, nil
	case "2v2":
		return Format2v2, nil
	case "4v4":
		return Format4v4, nil
	case "gauntlet":
		return FormatGauntlet, nil
	case "royalrumble", "rumble", "royal-rumble":
		return FormatRoyalRumble, nil
	}
	return "", fmt.Errorf("unknown match format %q", s)
}

// IsTeamFormat reports whether participants are split into two teams.
func (f Format) IsTeamFormat() bool {
	return f == Format2v2 || f == Format4v4
}

// TeamSize returns the members per team for team formats, 1 for 1v1 and 0
// for free-for-all formats.
func (f Format) TeamSize() int {
	switch f {
	case Format1v1:
		return 1
	case Format2v2:
		return 2
	case Format4v4:
		return 4
	}
	return 0
}

// ParticipantRange returns the inclusive min and max participant counts.
func (f Format) ParticipantRange() (int, int) {
	switch f {
	case Format1v1:
		return 2, 2
	case Format2v2:
		return 4, 4
	case Format4v4:
		return 8, 8
	case FormatGauntlet:
		return GauntletMinParticipants, GauntletMaxParticipants
	case FormatRoyalRumble:
		return RumbleMinParticipants, RumbleMaxParticipants
	}
	return 0, 0
}

// Command returns the cooldown key of the command that starts this format.
func (f Format) Command() string {
	switch f {
	case Format1v1:
		return CommandChallenge
	case Format2v2:
		return Command2v2
	case Format4v4:
		return Command4v4
	case FormatGauntlet:
		return CommandGauntlet
	case FormatRoyalRumble:
		return CommandRoyalRumble
	}
	return ""
}

// DisplayName is the human-readable name used in channel messages.
func (f Format) DisplayName() string {
	switch f {
	case Format1v1:
		return "Singles Match"
	case Format2v2:
		return "Tag Team Match"
	case Format4v4:
		return "Survivor Series Elimination Match"
	case FormatGauntlet:
		return "Gauntlet Match"
	case FormatRoyalRumble:
		return "Royal Rumble"
	}
	return string(f)
}
