package llm

import (
	"context"
	"strings"
	"sync/atomic"
)

// DemoScorer serves canned model replies so the server runs end to end
// without credentials. Replies are raw JSON text, formatted the way a real
// model would answer, so the extraction and normalization pipeline stays
// fully exercised.
type DemoScorer struct {
	next atomic.Uint64
}

// NewDemoScorer creates a credential-free scorer.
func NewDemoScorer() *DemoScorer {
	return &DemoScorer{}
}

// demoAudioReplies rotate per ScoreAudio call. One reply arrives inside a
// fenced code block, the way chatty models sometimes answer.
var demoAudioReplies = []string{
	`{
  "scam_score": 0.92,
  "confidence": 0.88,
  "verdict": "SCAM",
  "signals": [
    {"category": "AUTHORITY_IMPERSONATION", "detail": "Caller claims to be from the Social Security Administration", "severity": "high"},
    {"category": "INFORMATION_EXTRACTION", "detail": "Asks the listener to confirm their Social Security number", "severity": "high"},
    {"category": "URGENCY_TACTICS", "detail": "Claims the number will be suspended within 24 hours", "severity": "high"}
  ],
  "transcript_summary": "Robocall claiming the listener's Social Security number has been suspended and demanding immediate verification.",
  "recommendation": "Hang up immediately. The SSA does not suspend numbers or call to demand personal information."
}`,
	"Here is my analysis of the call:\n```json\n" + `{
  "scam_score": 0.85,
  "confidence": 0.8,
  "verdict": "LIKELY_SCAM",
  "signals": [
    {"category": "AUTHORITY_IMPERSONATION", "detail": "Caller impersonates a law office threatening legal action", "severity": "high"},
    {"category": "EMOTIONAL_MANIPULATION", "detail": "Uses fear of arrest to pressure the listener", "severity": "high"}
  ],
  "transcript_summary": "Pre-recorded message threatening a lawsuit unless the listener calls back immediately.",
  "recommendation": "Do not call back. Verify any legal claim through official channels."
}` + "\n```",
	`{
  "scam_score": 0.78,
  "confidence": 0.82,
  "verdict": "LIKELY_SCAM",
  "signals": [
    {"category": "AUTHORITY_IMPERSONATION", "detail": "Claims to be Amazon security about a suspicious charge", "severity": "medium"},
    {"category": "INFORMATION_EXTRACTION", "detail": "Asks the listener to press 1 to speak with an agent about account details", "severity": "high"}
  ],
  "transcript_summary": "Robocall about a supposed suspicious charge on an Amazon account.",
  "recommendation": "Do not press any buttons. Check your account directly through the official app or website."
}`,
	`{
  "scam_score": 0.65,
  "confidence": 0.7,
  "verdict": "SUSPICIOUS",
  "signals": [
    {"category": "KNOWN_SCAM_SCRIPTS", "detail": "Extended vehicle warranty script", "severity": "medium"},
    {"category": "VOCAL_PATTERNS", "detail": "Scripted delivery with call-center background noise", "severity": "low"}
  ],
  "transcript_summary": "Robocall offering to extend the listener's expiring vehicle warranty.",
  "recommendation": "Ignore the offer. Legitimate warranty providers do not cold-call."
}`,
	`{
  "scam_score": 0.08,
  "confidence": 0.9,
  "verdict": "SAFE",
  "signals": [],
  "transcript_summary": "A routine appointment reminder from a dental office.",
  "recommendation": "No action needed. The call appears legitimate."
}`,
}

// demoTranscriptReplies map keyword groups to a canned reply. First match
// wins; no match means the safe reply.
var demoTranscriptReplies = []struct {
	keywords []string
	reply    string
}{
	{
		keywords: []string{"irs", "tax", "arrest"},
		reply: `{
  "scam_score": 0.95,
  "confidence": 0.9,
  "verdict": "SCAM",
  "signals": [
    {"category": "AUTHORITY_IMPERSONATION", "detail": "Caller claims to be an IRS agent", "severity": "high"},
    {"category": "URGENCY_TACTICS", "detail": "Threatens arrest within the hour unless payment is made", "severity": "high"},
    {"category": "UNUSUAL_PAYMENT", "detail": "Demands payment in gift cards", "severity": "high"}
  ],
  "recommendation": "Hang up. The IRS never demands immediate payment by phone or gift card."
}`,
	},
	{
		keywords: []string{"medicare", "benefits", "press 1"},
		reply: `{
  "scam_score": 0.72,
  "confidence": 0.78,
  "verdict": "LIKELY_SCAM",
  "signals": [
    {"category": "KNOWN_SCAM_SCRIPTS", "detail": "Medicare benefits enrollment robocall", "severity": "medium"},
    {"category": "INFORMATION_EXTRACTION", "detail": "Asks for Medicare number to 'verify eligibility'", "severity": "high"}
  ],
  "recommendation": "Do not share your Medicare number. Contact Medicare directly at their official number."
}`,
	},
	{
		keywords: []string{"amazon", "suspicious", "charge"},
		reply: `{
  "scam_score": 0.8,
  "confidence": 0.75,
  "verdict": "LIKELY_SCAM",
  "signals": [
    {"category": "AUTHORITY_IMPERSONATION", "detail": "Claims to be Amazon fraud department", "severity": "medium"},
    {"category": "URGENCY_TACTICS", "detail": "Says the account will be charged unless the listener acts now", "severity": "high"}
  ],
  "recommendation": "Hang up and check your account through the official Amazon app or website."
}`,
	},
	{
		keywords: []string{"warranty", "vehicle", "car"},
		reply: `{
  "scam_score": 0.6,
  "confidence": 0.7,
  "verdict": "SUSPICIOUS",
  "signals": [
    {"category": "KNOWN_SCAM_SCRIPTS", "detail": "Extended vehicle warranty script", "severity": "medium"}
  ],
  "recommendation": "Ignore the offer. Legitimate warranty providers do not cold-call."
}`,
	},
	{
		keywords: []string{"social security", "ssn"},
		reply: `{
  "scam_score": 0.9,
  "confidence": 0.85,
  "verdict": "SCAM",
  "signals": [
    {"category": "AUTHORITY_IMPERSONATION", "detail": "Claims to be from the Social Security Administration", "severity": "high"},
    {"category": "INFORMATION_EXTRACTION", "detail": "Requests Social Security number verification", "severity": "high"}
  ],
  "recommendation": "Hang up immediately. The SSA does not call to verify your number."
}`,
	},
}

const demoSafeReply = `{
  "scam_score": 0.05,
  "confidence": 0.92,
  "verdict": "SAFE",
  "signals": [],
  "recommendation": "No action needed. The call appears legitimate."
}`

// ScoreAudio rotates through the canned audio replies.
func (d *DemoScorer) ScoreAudio(_ context.Context, _ []byte) (string, error) {
	n := d.next.Add(1) - 1
	return demoAudioReplies[n%uint64(len(demoAudioReplies))], nil
}

// ScoreTranscript matches transcript keywords to a canned reply.
func (d *DemoScorer) ScoreTranscript(_ context.Context, transcript string) (string, error) {
	lower := strings.ToLower(transcript)
	for _, entry := range demoTranscriptReplies {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.reply, nil
			}
		}
	}
	return demoSafeReply, nil
}
