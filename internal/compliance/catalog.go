package compliance

import (
	"content_compliance/internal/domain"
)

const (
	CategoryMedicalClaims   = "medical_claims"
	CategoryFinancialClaims = "financial_claims"
	CategoryLegalClaims     = "legal_claims"
	CategoryPrivacy         = "privacy"
	CategoryDisclosure      = "disclosure"
	CategoryPlatformPolicy  = "platform_policy"
	CategoryCustom          = "custom"
)

const (
	RulesetMedical              = "medical_general"
	RulesetHIPAA                = "hipaa_privacy"
	RulesetFinancial            = "financial_general"
	RulesetLegal                = "legal_general"
	RulesetPII                  = "privacy_pii"
	RulesetPlatformGeneral      = "platform_general"
	RulesetPlatformRestrictions = "platform_restrictions"
)

// MaxHashtags is the count above which excessive_hashtags fires.
const MaxHashtags = 30

var (
	healthcare = []domain.Industry{domain.IndustryHealthcare}
	finance    = []domain.Industry{domain.IndustryFinance}
	legal      = []domain.Industry{domain.IndustryLegal}
)

func DefaultRulesets() []RuleSet {
	return []RuleSet{
		MedicalRuleSet(),
		HIPAARuleSet(),
		FinancialRuleSet(),
		LegalRuleSet(),
		PIIRuleSet(),
		PlatformGeneralRuleSet(),
		PlatformRestrictionsRuleSet(),
	}
}

func MedicalRuleSet() RuleSet {
	return RuleSet{
		Name: RulesetMedical,
		Rules: []domain.Rule{
			{
				ID:          "cure_claims",
				Name:        "Cure claims",
				Description: "Content must not claim that a product cures, heals or reverses a condition.",
				Severity:    domain.SeverityCritical,
				Category:    CategoryMedicalClaims,
				Industries:  healthcare,
				Message:     "Claims that a product cures or heals a condition are prohibited",
				Suggestion:  "Describe supported benefits instead, e.g. \"may help support\", and cite evidence",
				Predicate:   Pattern(`(?i)\b(cures?|cured|curing|heals?|reverses?)\b`),
			},
			{
				ID:          "fda_approval_claims",
				Name:        "FDA approval claims",
				Description: "Content must not claim FDA approval, clearance or certification.",
				Severity:    domain.SeverityHigh,
				Category:    CategoryMedicalClaims,
				Industries:  healthcare,
				Message:     "Unverified FDA approval claims are not allowed",
				Suggestion:  "Remove the claim or reference the exact clearance with its identifier",
				Predicate:   Pattern(`(?i)\bFDA[- ]?(approved|certified|cleared)\b`),
			},
			{
				ID:          "guaranteed_health_outcomes",
				Name:        "Guaranteed health outcomes",
				Description: "Content must not promise guaranteed or universal health results.",
				Severity:    domain.SeverityHigh,
				Category:    CategoryMedicalClaims,
				Industries:  healthcare,
				Message:     "Health outcomes cannot be guaranteed",
				Suggestion:  "State that results vary between individuals",
				Predicate:   Keywords("guaranteed", "100% effective", "works for everyone", "miracle", "no side effects"),
			},
			{
				ID:          "medical_disclaimer_missing",
				Name:        "Medical disclaimer",
				Description: "Health related content needs a disclaimer pointing to professional advice.",
				Severity:    domain.SeverityMedium,
				Category:    CategoryDisclosure,
				Industries:  healthcare,
				Message:     "Health related content is missing a medical disclaimer",
				Suggestion:  "Add \"This is not medical advice. Consult your doctor.\"",
				Predicate: TermsWithoutDisclaimer(
					[]string{"supplement", "treatment", "symptom", "anxiety", "depression", "diabetes", "weight loss", "medication", "therapy"},
					[]string{"consult your doctor", "consult a physician", "talk to your doctor", "not intended to diagnose", "not medical advice"},
				),
			},
			{
				ID:          "before_after_claims",
				Name:        "Before and after claims",
				Description: "Before and after comparisons need substantiation.",
				Severity:    domain.SeverityLow,
				Category:    CategoryMedicalClaims,
				Industries:  healthcare,
				Message:     "Before and after comparisons may imply typical results",
				Suggestion:  "Add \"Individual results vary\" next to the comparison",
				Predicate:   Keywords("before and after", "before & after"),
			},
		},
	}
}

func HIPAARuleSet() RuleSet {
	return RuleSet{
		Name: RulesetHIPAA,
		Rules: []domain.Rule{
			{
				ID:          "patient_identifiers",
				Name:        "Patient identifiers",
				Description: "Content must not include patient identifiers such as record numbers or birth dates.",
				Severity:    domain.SeverityCritical,
				Category:    CategoryPrivacy,
				Industries:  healthcare,
				Message:     "Content appears to include protected health information",
				Suggestion:  "Remove record numbers, birth dates and other identifiers",
				Predicate:   Pattern(`(?i)\b(medical record number|MRN|date of birth|DOB)\b\s*[:#]?\s*[\w/-]+`),
			},
			{
				ID:          "diagnosis_disclosure",
				Name:        "Diagnosis disclosure",
				Description: "Content must not disclose an identifiable patient's diagnosis or treatment.",
				Severity:    domain.SeverityHigh,
				Category:    CategoryPrivacy,
				Industries:  healthcare,
				Message:     "Content discloses a patient's diagnosis or treatment",
				Suggestion:  "Describe conditions in general terms without referring to a specific patient",
				Predicate:   Keywords("was diagnosed with", "diagnosed our patient", "treated our patient"),
			},
			{
				ID:          "patient_testimonial_consent",
				Name:        "Patient testimonial consent",
				Description: "Patient stories need a visible consent statement.",
				Severity:    domain.SeverityMedium,
				Category:    CategoryDisclosure,
				Industries:  healthcare,
				Message:     "Patient story has no consent statement",
				Suggestion:  "Add \"Shared with the patient's written consent\"",
				Predicate: TermsWithoutDisclaimer(
					[]string{"my patient", "our patient", "patient story", "patient testimonial"},
					[]string{"shared with permission", "with consent", "written consent", "patient consent"},
				),
			},
		},
	}
}

func FinancialRuleSet() RuleSet {
	return RuleSet{
		Name: RulesetFinancial,
		Rules: []domain.Rule{
			{
				ID:          "guaranteed_returns",
				Name:        "Guaranteed returns",
				Description: "Content must not promise guaranteed investment returns.",
				Severity:    domain.SeverityCritical,
				Category:    CategoryFinancialClaims,
				Industries:  finance,
				Message:     "Investment returns cannot be guaranteed",
				Suggestion:  "Remove the guarantee and describe historical performance with its risks",
				Predicate:   Pattern(`(?i)\bguarantee[sd]?\s+(returns?|profits?|income|gains?|yields?)\b`),
			},
			{
				ID:          "risk_free_claims",
				Name:        "Risk-free claims",
				Description: "Investments must not be described as free of risk.",
				Severity:    domain.SeverityHigh,
				Category:    CategoryFinancialClaims,
				Industries:  finance,
				Message:     "Investments must not be described as risk-free",
				Suggestion:  "State that all investments carry risk, including loss of principal",
				Predicate:   Keywords("risk-free", "risk free", "no risk", "can't lose", "cannot lose", "zero risk"),
			},
			{
				ID:          "get_rich_quick",
				Name:        "Get rich quick language",
				Description: "Content must not promise fast or effortless wealth.",
				Severity:    domain.SeverityHigh,
				Category:    CategoryFinancialClaims,
				Industries:  finance,
				Message:     "Get-rich-quick language is prohibited",
				Suggestion:  "Focus on education and realistic expectations",
				Predicate:   Keywords("get rich quick", "double your money", "overnight millionaire", "passive income guaranteed"),
			},
			{
				ID:          "return_percentage_claims",
				Name:        "Return percentage claims",
				Description: "Specific return figures need context and a performance disclaimer.",
				Severity:    domain.SeverityMedium,
				Category:    CategoryFinancialClaims,
				Industries:  finance,
				Message:     "Specific return figures require substantiation",
				Suggestion:  "Add the period, source and \"Past performance does not guarantee future results\"",
				Predicate:   Pattern(`(?i)\b\d+(\.\d+)?\s?%\s+(returns?|roi|gains?|yield|apy|profits?)\b`),
			},
			{
				ID:          "investment_disclaimer_missing",
				Name:        "Investment disclaimer",
				Description: "Investment related content needs a risk disclaimer.",
				Severity:    domain.SeverityMedium,
				Category:    CategoryDisclosure,
				Industries:  finance,
				Message:     "Investment content is missing a risk disclaimer",
				Suggestion:  "Add \"Not financial advice. Investing involves risk.\"",
				Predicate: TermsWithoutDisclaimer(
					[]string{"invest", "stocks", "crypto", "trading", "portfolio", "returns"},
					[]string{"not financial advice", "past performance", "investing involves risk", "consult a financial advisor", "for informational purposes"},
				),
			},
			{
				ID:          "urgency_pressure",
				Name:        "Urgency pressure",
				Description: "Financial offers should not rely on artificial urgency.",
				Severity:    domain.SeverityLow,
				Category:    CategoryFinancialClaims,
				Industries:  finance,
				Message:     "High-pressure urgency language detected",
				Suggestion:  "Give readers time to evaluate the offer",
				Predicate:   Keywords("act now", "limited time only", "don't miss out", "before it's too late"),
			},
		},
	}
}

func LegalRuleSet() RuleSet {
	return RuleSet{
		Name: RulesetLegal,
		Rules: []domain.Rule{
			{
				ID:          "outcome_guarantees",
				Name:        "Outcome guarantees",
				Description: "Legal services must not guarantee case outcomes.",
				Severity:    domain.SeverityCritical,
				Category:    CategoryLegalClaims,
				Industries:  legal,
				Message:     "Case outcomes cannot be guaranteed",
				Suggestion:  "Describe your experience without promising a result",
				Predicate:   Pattern(`(?i)\bguarantee[sd]?\s+(a\s+|the\s+)?(win|victory|outcome|settlement|verdict|acquittal)\b`),
			},
			{
				ID:          "superlative_claims",
				Name:        "Superlative claims",
				Description: "Comparative claims about a lawyer or firm must be verifiable.",
				Severity:    domain.SeverityHigh,
				Category:    CategoryLegalClaims,
				Industries:  legal,
				Message:     "Unverifiable superlative claim about legal services",
				Suggestion:  "Cite the awarding organisation or remove the claim",
				Predicate:   Keywords("best lawyer", "best attorney", "#1 law firm", "top lawyer", "number one attorney"),
			},
			{
				ID:          "specialist_claims",
				Name:        "Specialist claims",
				Description: "Specialization claims are restricted unless certified.",
				Severity:    domain.SeverityMedium,
				Category:    CategoryLegalClaims,
				Industries:  legal,
				Message:     "Specialization claims may require certification",
				Suggestion:  "Use \"practice focused on\" unless you hold a board certification",
				Predicate:   Pattern(`(?i)\b(certified\s+specialist|specializ(?:es|ing)\s+in|expert\s+in)\b`),
			},
			{
				ID:          "attorney_advertising_disclaimer",
				Name:        "Attorney advertising disclaimer",
				Description: "Legal marketing needs an attorney advertising notice.",
				Severity:    domain.SeverityMedium,
				Category:    CategoryDisclosure,
				Industries:  legal,
				Message:     "Legal marketing is missing an attorney advertising notice",
				Suggestion:  "Add \"Attorney Advertising. This is not legal advice.\"",
				Predicate: TermsWithoutDisclaimer(
					[]string{"lawyer", "attorney", "law firm", "legal representation", "lawsuit"},
					[]string{"attorney advertising", "prior results do not guarantee", "not legal advice"},
				),
			},
			{
				ID:          "past_results",
				Name:        "Past results",
				Description: "Quoted settlements or verdicts need a prior results disclaimer.",
				Severity:    domain.SeverityLow,
				Category:    CategoryLegalClaims,
				Industries:  legal,
				Message:     "Quoted case results need a prior results disclaimer",
				Suggestion:  "Add \"Prior results do not guarantee a similar outcome\"",
				Predicate:   Pattern(`(?i)\b(won|recovered|secured)\s+\$\d[\d,]*`),
			},
		},
	}
}

func PIIRuleSet() RuleSet {
	return RuleSet{
		Name: RulesetPII,
		Rules: []domain.Rule{
			{
				ID:          "ssn",
				Name:        "Social security number",
				Description: "Content must not include social security numbers.",
				Severity:    domain.SeverityCritical,
				Category:    CategoryPrivacy,
				Message:     "Content contains what looks like a social security number",
				Suggestion:  "Remove the number",
				Predicate:   Pattern(`\b\d{3}-\d{2}-\d{4}\b`),
			},
			{
				ID:          "credit_card_number",
				Name:        "Payment card number",
				Description: "Content must not include payment card numbers.",
				Severity:    domain.SeverityCritical,
				Category:    CategoryPrivacy,
				Message:     "Content contains what looks like a payment card number",
				Suggestion:  "Remove the card number",
				Predicate:   Pattern(`\b(?:\d[ -]?){12,15}\d\b`),
			},
			{
				ID:          "phone_number",
				Name:        "Phone number",
				Description: "Content should not expose personal phone numbers.",
				Severity:    domain.SeverityHigh,
				Category:    CategoryPrivacy,
				Message:     "Content contains a phone number",
				Suggestion:  "Use a business contact form or a tracked business line",
				Predicate:   Pattern(`\(?\b\d{3}\)?[-. ]\d{3}[-. ]\d{4}\b`),
			},
			{
				ID:          "email_address",
				Name:        "Email address",
				Description: "Content should not expose personal email addresses.",
				Severity:    domain.SeverityMedium,
				Category:    CategoryPrivacy,
				Message:     "Content contains an email address",
				Suggestion:  "Link to a contact page instead",
				Predicate:   Pattern(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
			},
			{
				ID:          "street_address",
				Name:        "Street address",
				Description: "Content should not expose residential street addresses.",
				Severity:    domain.SeverityMedium,
				Category:    CategoryPrivacy,
				Message:     "Content contains a street address",
				Suggestion:  "Share a business location or general area instead",
				Predicate:   Pattern(`(?i)\b\d{1,5}\s+(?:[a-z]+\s+){1,3}(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr)\b`),
			},
		},
	}
}

// PlatformGeneralRuleSet holds rules that apply on every platform.
func PlatformGeneralRuleSet() RuleSet {
	return RuleSet{
		Name: RulesetPlatformGeneral,
		Rules: []domain.Rule{
			{
				ID:          "excessive_hashtags",
				Name:        "Excessive hashtags",
				Description: "Posts with more than 30 hashtags are treated as spam by most platforms.",
				Severity:    domain.SeverityLow,
				Category:    CategoryPlatformPolicy,
				Message:     "Too many hashtags",
				Suggestion:  "Keep to the most relevant hashtags",
				Predicate:   HashtagLimit(MaxHashtags),
			},
			{
				ID:          "engagement_bait",
				Name:        "Engagement bait",
				Description: "Platforms demote posts that solicit likes, shares or tags.",
				Severity:    domain.SeverityMedium,
				Category:    CategoryPlatformPolicy,
				Message:     "Engagement bait reduces distribution",
				Suggestion:  "Ask a genuine question instead of requesting likes or tags",
				Predicate:   Keywords("like and share", "tag a friend", "tag 3 friends", "comment yes", "share to win", "follow for follow", "like if you agree"),
			},
			{
				ID:          "spam_phrases",
				Name:        "Spam phrases",
				Description: "Prize and selection phrasing is typical of scams.",
				Severity:    domain.SeverityHigh,
				Category:    CategoryPlatformPolicy,
				Message:     "Content uses phrasing associated with scams",
				Suggestion:  "Describe the promotion and its official terms plainly",
				Predicate:   Keywords("claim your prize", "you've been selected", "you have been selected", "free money"),
			},
			{
				ID:          "undisclosed_sponsorship",
				Name:        "Undisclosed sponsorship",
				Description: "Sponsored or affiliate content must carry a disclosure.",
				Severity:    domain.SeverityMedium,
				Category:    CategoryDisclosure,
				Message:     "Sponsored content is missing a disclosure",
				Suggestion:  "Add #ad or #sponsored at the start of the caption",
				Predicate: TermsWithoutDisclaimer(
					[]string{"sponsored by", "use my code", "discount code", "affiliate link"},
					[]string{"#ad", "#sponsored", "paid partnership", "#partner"},
				),
			},
			{
				ID:          "clickbait_language",
				Name:        "Clickbait language",
				Description: "Sensational phrasing erodes trust.",
				Severity:    domain.SeverityLow,
				Category:    CategoryPlatformPolicy,
				Message:     "Clickbait phrasing detected",
				Suggestion:  "Lead with the actual value of the post",
				Predicate:   Keywords("you won't believe", "doctors hate", "shocking truth"),
			},
			{
				ID:          "excessive_caps",
				Name:        "Excessive capitals",
				Description: "Titles and captions written mostly in capitals read as shouting.",
				Severity:    domain.SeverityLow,
				Category:    CategoryPlatformPolicy,
				Message:     "Text is mostly upper case",
				Suggestion:  "Use sentence case",
				Predicate:   ExcessiveCaps(20, 0.7),
			},
		},
	}
}

// PlatformRestrictionsRuleSet holds rules scoped to individual platforms.
func PlatformRestrictionsRuleSet() RuleSet {
	return RuleSet{
		Name: RulesetPlatformRestrictions,
		Rules: []domain.Rule{
			{
				ID:          "instagram_caption_links",
				Name:        "Instagram caption links",
				Description: "Links in Instagram captions are not clickable.",
				Severity:    domain.SeverityInfo,
				Category:    CategoryPlatformPolicy,
				Platforms:   []domain.Platform{domain.PlatformInstagram},
				Message:     "Links in Instagram captions are not clickable",
				Suggestion:  "Point to the link in bio",
				Predicate:   Pattern(`https?://\S+`, domain.FieldCaption),
			},
			{
				ID:          "tiktok_external_links",
				Name:        "TikTok external links",
				Description: "TikTok limits reach of posts that push traffic off platform.",
				Severity:    domain.SeverityLow,
				Category:    CategoryPlatformPolicy,
				Platforms:   []domain.Platform{domain.PlatformTikTok},
				Message:     "External links reduce TikTok reach",
				Suggestion:  "Move the link to your profile",
				Predicate:   Pattern(`https?://\S+`, domain.FieldScript, domain.FieldCaption),
			},
			{
				ID:          "twitter_caption_length",
				Name:        "Twitter post length",
				Description: "Posts on Twitter are limited to 280 characters.",
				Severity:    domain.SeverityMedium,
				Category:    CategoryPlatformPolicy,
				Platforms:   []domain.Platform{domain.PlatformTwitter},
				Message:     "Caption exceeds the 280 character limit",
				Suggestion:  "Shorten the caption or split it into a thread",
				Predicate:   MaxLength(domain.FieldCaption, 280),
			},
			{
				ID:          "youtube_title_length",
				Name:        "YouTube title length",
				Description: "YouTube titles are limited to 100 characters.",
				Severity:    domain.SeverityMedium,
				Category:    CategoryPlatformPolicy,
				Platforms:   []domain.Platform{domain.PlatformYouTube},
				Message:     "Title exceeds the 100 character limit",
				Suggestion:  "Shorten the title",
				Predicate:   MaxLength(domain.FieldTitle, 100),
			},
		},
	}
}
