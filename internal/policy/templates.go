package policy

import "fmt"

// Response templates. Fixed copy parameterized only with resource contacts,
// never with user-supplied text.

const profanityMessage = "I hear you're frustrated. Let's see if I can help with what you need. What can I do for you?"

func renderDistressMessage(res Resources) string {
	return fmt.Sprintf(
		"It sounds like things are tough right now. That's understandable - this work can be demanding. "+
			"If you'd like someone to talk to, the Employee Assistance Program is free and confidential: %s. "+
			"Is there something work-related I can help you with right now?",
		res.EAPPhone,
	)
}

func renderSelfHarmMessage(res Resources) string {
	return fmt.Sprintf(
		"I'm concerned about what you've shared. You don't have to go through this alone. "+
			"The 988 Suicide & Crisis Lifeline is available 24/7 - call or text %s. "+
			"Your Employee Assistance Program also offers free, confidential counseling: %s. "+
			"A member of our support team will reach out to check in with you.",
		res.CrisisLine, res.EAPPhone,
	)
}

func renderHarmToOthersMessage(res Resources) string {
	return fmt.Sprintf(
		"I take what you've said seriously. If you're having thoughts about hurting someone, "+
			"please talk to someone right away - your Employee Assistance Program is confidential: %s. "+
			"Our team has been notified and someone will follow up with you. "+
			"If there is an immediate threat, contact store security at %s or call 911.",
		res.EAPPhone, res.SecurityExtension,
	)
}

func renderImminentDangerMessage(res Resources) string {
	return fmt.Sprintf(
		"If anyone is in immediate danger, call 911 now. "+
			"Contact store security at %s and move to a safe location if you can. "+
			"Emergency responders have the training to handle this - your safety comes first.",
		res.SecurityExtension,
	)
}
