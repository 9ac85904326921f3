package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/victorydiv/etsyapp/internal/config"
)

// Client 电商平台开放 API 客户端（Etsy v3 风格）。
// 只做只读拉取：在售 listing 与未发货订单，认证走 api key + bearer token。
type Client struct {
	baseURL     string
	apiKey      string
	accessToken string
	shopID      string
	httpClient  *http.Client
}

func NewClient(cfg config.MarketplaceConfig) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		accessToken: cfg.AccessToken,
		shopID:      cfg.ShopID,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Money 平台金额表示：amount/divisor
type Money struct {
	Amount  int `json:"amount"`
	Divisor int `json:"divisor"`
}

// Value 折算为十进制金额
func (m Money) Value() float64 {
	if m.Divisor == 0 {
		return 0
	}
	return float64(m.Amount) / float64(m.Divisor)
}

// Listing 平台在售商品
type Listing struct {
	ListingID int      `json:"listing_id"`
	Title     string   `json:"title"`
	State     string   `json:"state"`
	Quantity  int      `json:"quantity"`
	Price     Money    `json:"price"`
	SKUs      []string `json:"skus"`
}

// Receipt 平台订单（买家一次结账）
type Receipt struct {
	ReceiptID        int           `json:"receipt_id"`
	Name             string        `json:"name"`
	BuyerEmail       string        `json:"buyer_email"`
	FormattedAddress string        `json:"formatted_address"`
	GrandTotal       Money         `json:"grandtotal"`
	CreateTimestamp  int64         `json:"create_timestamp"`
	Transactions     []Transaction `json:"transactions"`
}

// Transaction 订单行
type Transaction struct {
	TransactionID int    `json:"transaction_id"`
	ListingID     int    `json:"listing_id"`
	Title         string `json:"title"`
	SKU           string `json:"sku"`
	Quantity      int    `json:"quantity"`
	Price         Money  `json:"price"`
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求平台API失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("平台API错误[%d]: %s", resp.StatusCode, apiErr.Error)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析平台响应失败: %w", err)
	}
	return nil
}

// GetActiveListings 拉取全部在售 listing，按 limit/offset 翻页
func (c *Client) GetActiveListings(ctx context.Context) ([]Listing, error) {
	const pageSize = 100
	var all []Listing
	for offset := 0; ; offset += pageSize {
		var page struct {
			Count   int       `json:"count"`
			Results []Listing `json:"results"`
		}
		path := fmt.Sprintf("/application/shops/%s/listings/active?limit=%d&offset=%d",
			c.shopID, pageSize, offset)
		if err := c.get(ctx, path, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Results...)
		if len(all) >= page.Count || len(page.Results) == 0 {
			break
		}
	}
	return all, nil
}

// GetOpenReceipts 拉取已付款未发货的订单（含订单行）
func (c *Client) GetOpenReceipts(ctx context.Context) ([]Receipt, error) {
	const pageSize = 100
	var all []Receipt
	for offset := 0; ; offset += pageSize {
		var page struct {
			Count   int       `json:"count"`
			Results []Receipt `json:"results"`
		}
		path := fmt.Sprintf("/application/shops/%s/receipts?was_paid=true&was_shipped=false&limit=%d&offset=%d",
			c.shopID, pageSize, offset)
		if err := c.get(ctx, path, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Results...)
		if len(all) >= page.Count || len(page.Results) == 0 {
			break
		}
	}
	return all, nil
}

// PrimarySKU listing 的首个 SKU，平台允许一个 listing 挂多个 SKU
func (l Listing) PrimarySKU() string {
	if len(l.SKUs) > 0 {
		return l.SKUs[0]
	}
	return ""
}

// ExternalID 平台 listing ID 的字符串形式
func (l Listing) ExternalID() string {
	return strconv.Itoa(l.ListingID)
}
