package availability

// IssueKind classifies problems found in stored scheduling data. Issues never
// abort a computation; they are returned so the caller can log them.
type IssueKind string

const IssueDataIntegrity IssueKind = "data_integrity"

type Issue struct {
	Kind   IssueKind
	Detail string
}

func dataIntegrity(detail string) Issue {
	return Issue{Kind: IssueDataIntegrity, Detail: detail}
}
