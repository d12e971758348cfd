// Package history reconciles incoming human messages against persisted
// conversation state.
//
// Reconcile creates the conversation on first contact with a chat id (the
// title is fixed to the first human message and never changes), inserts the
// user turn when its message id is unseen, and truncates every later turn
// when the id already exists (edit/resubmit). Callers await Reconcile before
// streaming so the user turn always precedes the assistant turn it answers.
package history
