package handlers

const (
	msgWelcome = "Hi! I am the knowledge-base assistant. Ask me anything.\n\n" +
		"/reset - forget our conversation\n" +
		"/help - show this message"
	msgStartingUp  = "The assistant is starting up, try again shortly."
	msgGeneric     = "Something went wrong. Please try again."
	msgEmptyAnswer = "The assistant returned an empty answer."
	msgTextOnly    = "Only text messages are supported."
	msgUnknown     = "Unknown command. Use /help."
)

// maxMessageLength is the Telegram limit for a single text message.
const maxMessageLength = 4096
