package summary

// Fixed texts the pipeline emits without calling the backend, and the
// sentinel downstream stages use to filter out channels with no business
// content.
const (
	// NoBusinessSentinel is the exact phrase the channel prompt instructs
	// the model to return for casual-only channels. Digests equal to it are
	// excluded from the report and from the aggregate pass input.
	NoBusinessSentinel = "No significant business activities detected."

	// NoContentText is used when a channel's transcript is empty after
	// filtering blank messages.
	NoContentText = "No meaningful content found in this channel during the specified time period."

	// NoActivityAllText is the aggregate result when no channel produced a
	// non-sentinel digest.
	NoActivityAllText = "No significant business activities detected across all channels."
)

const channelPromptTemplate = `Analyze the Discord channel #%s messages below and provide a CONCISE business summary.

FOCUS ONLY ON:
- Important work discussions and decisions
- Project updates and progress
- Technical issues and solutions
- Planning, deadlines, and coordination
- Team assignments and responsibilities
- Announcements and important information

COMPLETELY IGNORE:
- Casual chat, jokes, memes, fun conversations
- Simple greetings, reactions, emojis
- Off-topic personal discussions
- Gaming or entertainment talk

If the channel contains mostly casual/fun content with no business value, respond with: "No significant business activities detected."

FORMAT: Provide 2-3 bullet points maximum, each focusing on key business outcomes.

Messages:
%s

Summary:`

const overallPromptTemplate = `Based on the following channel summaries from %s, create a SCRUM-STYLE OVERALL SUMMARY.

Think like a project manager providing a daily/weekly standup update. Focus on:
- What teams/groups accomplished
- Current blockers or issues
- Upcoming tasks and deadlines
- Key decisions made
- Resource needs or assignments

Provide a concise executive summary in 3-4 bullet points that a manager could use for reporting.

Channel Data:
%s

Overall Summary:`
