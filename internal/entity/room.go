package entity

// Room simulates a shared online game between two players. The host always
// plays X and the joiner always plays O. In online mode the room board is
// authoritative and sessions refresh their local copy from it.
type Room struct {
	Code              string `json:"code"`
	Game              Game   `json:"game"`
	OpponentConnected bool   `json:"opponent_connected"`
	// SimulatedMark is the mark played by the locally scheduled stand-in
	// opponent, or empty when both slots belong to real players.
	SimulatedMark string `json:"simulated_mark,omitempty"`
}

func NewRoom(code string) *Room {
	return &Room{
		Code: code,
		Game: Game{
			Board:  NewBoard(),
			Turn:   PlayerX,
			Status: StatusWaiting,
		},
	}
}

func (that *Room) HasSimulatedPeer() bool {
	return that.SimulatedMark != EmptyCell
}
