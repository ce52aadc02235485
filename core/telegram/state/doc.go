// Package state provides a per-user session store for Telegram bots.
// It is domain-agnostic: bots supply their own session type and FSM states.
package state
