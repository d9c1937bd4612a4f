package models

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Result - единый конверт ответа для всех операций очереди.
type Result struct {
	Status      Status         `json:"status"`
	Message     string         `json:"message"`
	Description string         `json:"description,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

func Success() *Result {
	return &Result{Status: StatusSuccess}
}

func Failed() *Result {
	return &Result{Status: StatusFailure}
}

func (r *Result) WithMessage(message string) *Result {
	r.Message = message
	return r
}

func (r *Result) WithDescription(description string) *Result {
	r.Description = description
	return r
}

func (r *Result) WithData(name string, value any) *Result {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	r.Data[name] = value
	return r
}

func (r *Result) OK() bool {
	return r != nil && r.Status == StatusSuccess
}

// Page - страница очереди.
type Page struct {
	PageIndex  int               `json:"page_index"`
	PageSize   int               `json:"page_size"`
	TotalCount int               `json:"total_count"`
	Entries    []CurriculumEntry `json:"curriculum_data_list"`
}

// Ключи данных в конверте
const (
	DataKeyList     = "curriculumDataList"
	DataKeyEntry    = "curriculumData"
	DataKeyPage     = "page"
	DataKeyCount    = "count"
	DataKeyPosition = "position"
)

// Entries достает список записей из конверта, если он там есть.
func (r *Result) Entries() []CurriculumEntry {
	if r == nil {
		return nil
	}
	entries, _ := r.Data[DataKeyList].([]CurriculumEntry)
	return entries
}

func (r *Result) Position() (Position, bool) {
	if r == nil {
		return Position{}, false
	}
	pos, ok := r.Data[DataKeyPosition].(Position)
	return pos, ok
}
