// Package importer is the one-shot batch job pulling trivia questions from
// the Open Trivia Database into the question store.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"adaptiq-quiz-service/internal/domain"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

const DefaultBaseURL = "https://opentdb.com/api.php"

// Category maps a local category key to an Open Trivia DB category ID.
type Category struct {
	Key   string `yaml:"key"`
	APIID int    `yaml:"id"`
	Name  string `yaml:"name"`
}

// DefaultCategories mirrors the categories the service ships with.
func DefaultCategories() []Category {
	return []Category{
		{Key: "computer", APIID: 18, Name: "Science: Computers"},
		{Key: "maths", APIID: 19, Name: "Science: Mathematics"},
		{Key: "sports", APIID: 21, Name: "Sports"},
	}
}

// QuestionWriter persists fetched questions, skipping duplicates.
type QuestionWriter interface {
	SaveQuestions(ctx context.Context, questions []domain.Question) (int, error)
}

// Client talks to the Open Trivia DB API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []apiQuestion `json:"results"`
}

type apiQuestion struct {
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// FetchQuestions pulls multiple-choice questions for one category and
// difficulty. HTTP 429 responses are retried with exponential backoff; an
// empty result set (API response code 1) is not an error.
func (c *Client) FetchQuestions(ctx context.Context, category Category, difficulty domain.Difficulty, amount int) ([]domain.Question, error) {
	query := url.Values{}
	query.Set("amount", strconv.Itoa(amount))
	query.Set("category", strconv.Itoa(category.APIID))
	query.Set("difficulty", string(difficulty))
	query.Set("type", "multiple")
	endpoint := c.baseURL + "?" + query.Encode()

	var payload apiResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("rate limited fetching category %d/%s", category.APIID, difficulty)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("trivia API status %d", resp.StatusCode))
		}
		payload = apiResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return backoff.Permanent(fmt.Errorf("decode trivia response: %w", err))
		}
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	switch payload.ResponseCode {
	case 0:
		// ok
	case 1:
		return nil, nil
	default:
		return nil, fmt.Errorf("trivia API error code %d", payload.ResponseCode)
	}

	now := time.Now()
	questions := make([]domain.Question, 0, len(payload.Results))
	for _, result := range payload.Results {
		incorrect := make([]string, len(result.IncorrectAnswers))
		for i, answer := range result.IncorrectAnswers {
			incorrect[i] = html.UnescapeString(answer)
		}
		questions = append(questions, domain.Question{
			ID:               uuid.NewString(),
			Text:             html.UnescapeString(result.Question),
			Category:         category.Key,
			Difficulty:       difficulty,
			CorrectAnswer:    html.UnescapeString(result.CorrectAnswer),
			IncorrectAnswers: incorrect,
			Active:           true,
			CreatedAt:        now,
		})
	}
	return questions, nil
}

// Importer runs the full category x difficulty import sweep.
type Importer struct {
	client     *Client
	writer     QuestionWriter
	categories []Category
}

func NewImporter(client *Client, writer QuestionWriter, categories []Category) *Importer {
	if len(categories) == 0 {
		categories = DefaultCategories()
	}
	return &Importer{client: client, writer: writer, categories: categories}
}

// Run fetches and stores questions for every category and difficulty,
// returning the number of newly inserted questions.
func (i *Importer) Run(ctx context.Context, amount int) (int, error) {
	difficulties := []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard}
	total := 0
	for _, category := range i.categories {
		log.Printf("importing %s questions...", category.Name)
		for _, difficulty := range difficulties {
			questions, err := i.client.FetchQuestions(ctx, category, difficulty, amount)
			if err != nil {
				return total, fmt.Errorf("fetch %s/%s: %w", category.Key, difficulty, err)
			}
			if len(questions) == 0 {
				log.Printf("  no %s questions found", difficulty)
				continue
			}
			inserted, err := i.writer.SaveQuestions(ctx, questions)
			if err != nil {
				return total, fmt.Errorf("save %s/%s: %w", category.Key, difficulty, err)
			}
			log.Printf("  imported %d %s questions", inserted, difficulty)
			total += inserted
		}
	}
	return total, nil
}
