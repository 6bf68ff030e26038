package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/olyamironova/ledger-engine/internal/api/dto"
	"github.com/olyamironova/ledger-engine/internal/core"
	"github.com/olyamironova/ledger-engine/internal/domain"
	"github.com/shopspring/decimal"
)

type Server struct {
	mgr *core.TransactionManager
}

func NewServer(mgr *core.TransactionManager) *Server {
	return &Server{mgr: mgr}
}

func (s *Server) Register(r gin.IRouter) {
	r.POST("/deposit", s.deposit)
	r.POST("/withdraw", s.withdraw)
	r.POST("/orders/buy", s.buyOrder)
	r.POST("/orders/sell", s.sellOrder)
	r.POST("/orders/:id/status", s.updateOrderStatus)
	r.GET("/orders/:id", s.getOrder)
	r.GET("/balance/:username", s.getBalance)
	r.GET("/transactions/:username", s.listTransactions)
	r.GET("/assets/:username", s.listAssetBalances)
	r.GET("/assets/:username/transactions", s.listAssetTransactions)
}

func (s *Server) deposit(c *gin.Context) {
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	res, err := s.mgr.DepositFunds(c.Request.Context(), req.Username, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTxResponse(res))
}

func (s *Server) withdraw(c *gin.Context) {
	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	res, err := s.mgr.WithdrawFunds(c.Request.Context(), req.Username, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTxResponse(res))
}

func (s *Server) buyOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	orderType, err := parseOrderType(req.OrderType, true)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	res, err := s.mgr.CreateBuyOrderWithBalanceUpdate(c.Request.Context(),
		req.Username, req.AssetID, req.Quantity, req.Price, orderType, req.Total)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTxResponse(res))
}

func (s *Server) sellOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	orderType, err := parseOrderType(req.OrderType, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	res, err := s.mgr.CreateSellOrderWithBalanceUpdate(c.Request.Context(),
		req.Username, req.AssetID, req.Quantity, req.Price, orderType, req.Total)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTxResponse(res))
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	res, err := s.mgr.UpdateOrderStatus(c.Request.Context(), c.Param("id"), domain.OrderStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(res.Data.Order))
}

func (s *Server) getOrder(c *gin.Context) {
	o, err := s.mgr.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (s *Server) getBalance(c *gin.Context) {
	b, err := s.mgr.GetBalance(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{
		Username:       b.Username,
		CurrentBalance: b.CurrentBalance,
		UpdatedAt:      b.UpdatedAt,
	})
}

func (s *Server) listTransactions(c *gin.Context) {
	txs, err := s.mgr.ListTransactions(c.Request.Context(), c.Param("username"), queryLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]dto.TransactionItem, 0, len(txs))
	for _, tx := range txs {
		items = append(items, dto.TransactionItem{
			TransactionID: tx.TransactionID,
			Type:          string(tx.Type),
			Amount:        tx.Amount,
			Description:   tx.Description,
			Status:        string(tx.Status),
			ReferenceID:   tx.ReferenceID,
			CreatedAt:     tx.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) listAssetBalances(c *gin.Context) {
	balances, err := s.mgr.ListAssetBalances(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]dto.AssetBalanceItem, 0, len(balances))
	for _, ab := range balances {
		items = append(items, dto.AssetBalanceItem{AssetID: ab.AssetID, Quantity: ab.Quantity})
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) listAssetTransactions(c *gin.Context) {
	txs, err := s.mgr.ListAssetTransactions(c.Request.Context(), c.Param("username"), queryLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]dto.AssetTransactionItem, 0, len(txs))
	for _, tx := range txs {
		items = append(items, dto.AssetTransactionItem{
			TransactionID: tx.TransactionID,
			AssetID:       tx.AssetID,
			Type:          string(tx.Type),
			Quantity:      tx.Quantity,
			Price:         tx.Price,
			TotalAmount:   tx.TotalAmount,
			OrderID:       tx.OrderID,
			Status:        string(tx.Status),
			CreatedAt:     tx.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, items)
}

func parseOrderType(raw string, buy bool) (domain.OrderType, error) {
	switch raw {
	case "MARKET":
		if buy {
			return domain.MarketBuy, nil
		}
		return domain.MarketSell, nil
	case "LIMIT":
		if buy {
			return domain.LimitBuy, nil
		}
		return domain.LimitSell, nil
	}
	return "", &domain.ValidationError{Field: "order_type", Reason: "must be MARKET or LIMIT"}
}

func queryLimit(c *gin.Context) int {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	return limit
}

func toTxResponse(res *core.TransactionResult) dto.TransactionResponse {
	out := dto.TransactionResponse{
		Success:    res.Success,
		LockHeldMs: res.LockDuration.Milliseconds(),
		Amount:     res.Data.Amount,
	}
	if res.Data.Transaction != nil {
		out.TransactionID = res.Data.Transaction.TransactionID
	}
	if res.Data.Order != nil {
		out.OrderID = res.Data.Order.OrderID
	}
	if res.Data.Balance != nil {
		out.Balance = res.Data.Balance.CurrentBalance
	} else {
		out.Balance = decimal.Zero
	}
	return out
}

func toOrderResponse(o *domain.Order) dto.OrderResponse {
	return dto.OrderResponse{
		OrderID:     o.OrderID,
		Username:    o.Username,
		OrderType:   string(o.Type),
		AssetID:     o.AssetID,
		Quantity:    o.Quantity,
		Price:       o.Price,
		TotalAmount: o.TotalAmount,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func writeError(c *gin.Context, err error) {
	var (
		valErr      *domain.ValidationError
		balErr      *domain.InsufficientBalanceError
		assetErr    *domain.InsufficientAssetBalanceError
		lockErr     *domain.LockAcquisitionError
		dbErr       *domain.DatabaseOperationError
		notFoundErr *domain.EntityNotFoundError
		stateErr    *domain.OrderStateError
	)
	switch {
	case errors.As(err, &valErr),
		errors.As(err, &balErr),
		errors.As(err, &assetErr):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.As(err, &lockErr), errors.As(err, &dbErr):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
}
