package generation

import "math/rand/v2"

var nicheHooks = map[string][]string{
	"Fitness & Health": {
		"This 30-second morning routine will transform your energy levels forever",
		"I discovered the secret to burning calories while you sleep",
		"The fitness mistake 90% of people make (and how to fix it)",
		"This simple habit changed my body in 30 days",
	},
	"Technology": {
		"This iPhone feature will change everything you know about productivity",
		"The tech secret that billionaires don't want you to discover",
		"I found the app that's replacing entire teams",
		"This coding trick will save you 10 hours per week",
	},
	"Food & Cooking": {
		"The ingredient that makes restaurant food taste so good",
		"This 5-minute recipe went viral for a reason",
		"The cooking mistake that's ruining your meals",
		"Professional chefs hate this simple trick",
	},
}

var genericHooks = []string{
	"You won't believe what happened when I tried this",
	"This simple change transformed everything",
	"The secret that experts don't want you to know",
	"I couldn't believe the results after just one week",
}

var fallbackBodies = []string{
	"Here's what most people don't realize: success isn't about doing more, it's about doing the right things consistently. When I discovered this approach, everything changed. The results speak for themselves, and now I'm sharing exactly how you can do it too.",
	"The science behind this is fascinating. Researchers found that small, consistent actions compound over time to create massive results. I've been testing this method for months, and the transformation has been incredible.",
	"I used to struggle with the same challenges until I learned this game-changing strategy. Now, I wake up excited about my progress every single day. The best part? It only takes a few minutes to implement.",
}

var fallbackCTAs = []string{
	"Save this post and try it tomorrow! Comment below with your results and follow for more tips that actually work.",
	"Double-tap if this helped you! Share with someone who needs to see this. What's your biggest challenge? Tell me in the comments!",
	"Follow for daily tips that will transform your life. Which tip are you going to try first? Let me know below!",
}

// Fallback picks curated sections uniformly at random.
type Fallback struct {
	intN func(n int) int
}

// NewFallback returns a Fallback backed by intN, or math/rand/v2 when nil.
func NewFallback(intN func(n int) int) *Fallback {
	if intN == nil {
		intN = rand.IntN
	}
	return &Fallback{intN: intN}
}

// HooksFor returns the hook list used for niche.
func HooksFor(niche string) []string {
	if hooks, ok := nicheHooks[niche]; ok {
		return hooks
	}
	return genericHooks
}

// Bodies returns the fallback body list.
func Bodies() []string { return fallbackBodies }

// CTAs returns the fallback call-to-action list.
func CTAs() []string { return fallbackCTAs }

// Hook picks a hook for niche.
func (f *Fallback) Hook(niche string) string { return f.pick(HooksFor(niche)) }

// Body picks a body.
func (f *Fallback) Body() string { return f.pick(fallbackBodies) }

// CTA picks a call-to-action.
func (f *Fallback) CTA() string { return f.pick(fallbackCTAs) }

func (f *Fallback) pick(list []string) string {
	return list[f.intN(len(list))]
}
