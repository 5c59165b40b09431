// Package parser implements a recursive-descent parser over pkg/lexer's
// token stream, producing a core/ast tree. It covers exactly the
// ECMAScript subset spec.md's recognized obfuscation patterns use — no
// classes, destructuring, template literals, yield expressions, or regex
// literals; `async` and the generator `*` are recognized only as markers on
// function declarations and expressions — grounded in the teacher's pkg/parser/parser.go (a Parser struct holding
// current/peek tokens, one parseX method per grammar production) and
// pkg/parser/errors.go's ParseError.
package parser

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/pkg/lexer"
)

// Parser turns one token stream into one core/ast.Program.
type Parser struct {
	lex    *lexer.Lexer
	cur    lexer.Token
	peek   lexer.Token
	errors []error
	logger *slog.Logger
}

// New returns a Parser over src.
func New(src string) *Parser {
	p := &Parser{lex: lexer.New(src), logger: slog.Default()}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

func (p *Parser) pos() ast.Position {
	return ast.Position{Line: p.cur.Pos.Line, Column: p.cur.Pos.Column, Offset: p.cur.Pos.Offset}
}

func (p *Parser) errorf(format string, args ...interface{}) {
	err := newParseError(p.cur.Pos.Line, p.cur.Pos.Column, format, args...)
	p.errors = append(p.errors, err)
	p.logger.Warn("parse error", "error", err.Error())
}

func (p *Parser) expect(t lexer.TokenType, what string) bool {
	if p.cur.Type != t {
		p.errorf("expected %s, got %q", what, p.cur.Literal)
		return false
	}
	return true
}

// ParseProgram parses the whole token stream. It returns every statement it
// managed to recover even when errors occurred, paired with a non-nil error
// describing the first failure — spec.md §7.1's "the driver surfaces the
// parser's error verbatim and makes no attempt to partially deobfuscate".
func ParseProgram(src string) (*ast.Program, error) {
	p := New(src)
	prog := &ast.Program{Pos: ast.Position{Line: 1, Column: 1}}
	for p.cur.Type != lexer.EOF {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Body = append(prog.Body, stmt)
		} else {
			p.next()
		}
	}
	if len(p.errors) > 0 {
		return prog, fmt.Errorf("parse: %w", p.errors[0])
	}
	return prog, nil
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Type {
	case lexer.VAR:
		return p.parseVariableDeclaration()
	case lexer.FUNCTION:
		return p.parseFunctionDeclaration()
	case lexer.ASYNC:
		if p.peek.Type == lexer.FUNCTION {
			return p.parseFunctionDeclaration()
		}
		return p.parseExpressionStatement()
	case lexer.RETURN:
		return p.parseReturnStatement()
	case lexer.TRY:
		return p.parseTryStatement()
	case lexer.FOR:
		return p.parseForStatement()
	case lexer.WHILE:
		return p.parseWhileStatement()
	case lexer.LBRACE:
		return p.parseBlockStatement()
	case lexer.SEMICOLON:
		pos := p.pos()
		p.next()
		return &ast.EmptyStatement{Pos: pos}
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseVariableDeclaration() *ast.VariableDeclaration {
	pos := p.pos()
	p.next() // consume 'var'
	decl := &ast.VariableDeclaration{Kind: "var", Pos: pos}
	for {
		if !p.expect(lexer.IDENT, "identifier") {
			break
		}
		name := p.cur.Literal
		p.next()
		var init ast.Expression
		if p.cur.Type == lexer.ASSIGN {
			p.next()
			init = p.parseAssignExpr()
		}
		decl.Declarations = append(decl.Declarations, ast.VariableDeclarator{Name: name, Init: init})
		if p.cur.Type != lexer.COMMA {
			break
		}
		p.next()
	}
	p.consumeSemicolon()
	return decl
}

func (p *Parser) consumeSemicolon() {
	if p.cur.Type == lexer.SEMICOLON {
		p.next()
	}
}

func (p *Parser) parseFunctionDeclaration() *ast.FunctionDeclaration {
	pos := p.pos()
	async := false
	if p.cur.Type == lexer.ASYNC {
		async = true
		p.next()
	}
	p.next() // consume 'function'
	generator := false
	if p.cur.Type == lexer.STAR {
		generator = true
		p.next()
	}
	name := p.cur.Literal
	p.expect(lexer.IDENT, "function name")
	p.next()
	params := p.parseParamList()
	body := p.parseBlockStatement()
	return &ast.FunctionDeclaration{Id: name, Params: params, Body: body, Async: async, Generator: generator, Pos: pos}
}

func (p *Parser) parseParamList() []string {
	p.expect(lexer.LPAREN, "(")
	p.next()
	var params []string
	for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
		if p.cur.Type == lexer.IDENT {
			params = append(params, p.cur.Literal)
			p.next()
		}
		if p.cur.Type == lexer.COMMA {
			p.next()
		}
	}
	p.expect(lexer.RPAREN, ")")
	p.next()
	return params
}

func (p *Parser) parseReturnStatement() *ast.ReturnStatement {
	pos := p.pos()
	p.next() // consume 'return'
	var arg ast.Expression
	if p.cur.Type != lexer.SEMICOLON && p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		arg = p.parseExpression()
	}
	p.consumeSemicolon()
	return &ast.ReturnStatement{Argument: arg, Pos: pos}
}

func (p *Parser) parseTryStatement() *ast.TryStatement {
	pos := p.pos()
	p.next() // consume 'try'
	block := p.parseBlockStatement()
	stmt := &ast.TryStatement{Block: block, Pos: pos}
	if p.cur.Type == lexer.CATCH {
		p.next()
		var param string
		if p.cur.Type == lexer.LPAREN {
			p.next()
			if p.cur.Type == lexer.IDENT {
				param = p.cur.Literal
				p.next()
			}
			p.expect(lexer.RPAREN, ")")
			p.next()
		}
		stmt.Handler = &ast.CatchClause{Param: param, Body: p.parseBlockStatement()}
	}
	if p.cur.Type == lexer.FINALLY {
		p.next()
		stmt.Finalizer = p.parseBlockStatement()
	}
	return stmt
}

func (p *Parser) parseWhileStatement() *ast.WhileStatement {
	pos := p.pos()
	p.next() // consume 'while'
	p.expect(lexer.LPAREN, "(")
	p.next()
	test := p.parseExpression()
	p.expect(lexer.RPAREN, ")")
	p.next()
	body := p.parseStatement()
	return &ast.WhileStatement{Test: test, Body: body, Pos: pos}
}

func (p *Parser) parseForStatement() ast.Statement {
	pos := p.pos()
	p.next() // consume 'for'
	p.expect(lexer.LPAREN, "(")
	p.next()

	var init ast.Node
	if p.cur.Type == lexer.VAR {
		declPos := p.pos()
		p.next()
		name := p.cur.Literal
		p.expect(lexer.IDENT, "identifier")
		p.next()
		var decl ast.Node
		if p.cur.Type == lexer.IN || p.cur.Type == lexer.OF {
			of := p.cur.Type == lexer.OF
			p.next()
			right := p.parseAssignExpr()
			p.expect(lexer.RPAREN, ")")
			p.next()
			left := &ast.VariableDeclaration{Kind: "var", Declarations: []ast.VariableDeclarator{{Name: name}}, Pos: declPos}
			return &ast.ForInStatement{Left: left, Right: right, Body: p.parseStatement(), Of: of, Pos: pos}
		}
		var varInit ast.Expression
		if p.cur.Type == lexer.ASSIGN {
			p.next()
			varInit = p.parseAssignExpr()
		}
		decl = &ast.VariableDeclaration{Kind: "var", Declarations: []ast.VariableDeclarator{{Name: name, Init: varInit}}, Pos: declPos}
		for p.cur.Type == lexer.COMMA {
			p.next()
			n := p.cur.Literal
			p.next()
			var vi ast.Expression
			if p.cur.Type == lexer.ASSIGN {
				p.next()
				vi = p.parseAssignExpr()
			}
			decl.(*ast.VariableDeclaration).Declarations = append(decl.(*ast.VariableDeclaration).Declarations, ast.VariableDeclarator{Name: n, Init: vi})
		}
		init = decl
	} else if p.cur.Type != lexer.SEMICOLON {
		expr := p.parseExpression()
		if p.cur.Type == lexer.IN || p.cur.Type == lexer.OF {
			of := p.cur.Type == lexer.OF
			p.next()
			right := p.parseAssignExpr()
			p.expect(lexer.RPAREN, ")")
			p.next()
			return &ast.ForInStatement{Left: expr, Right: right, Body: p.parseStatement(), Of: of, Pos: pos}
		}
		init = expr
	}

	p.expect(lexer.SEMICOLON, ";")
	p.next()
	var test ast.Expression
	if p.cur.Type != lexer.SEMICOLON {
		test = p.parseExpression()
	}
	p.expect(lexer.SEMICOLON, ";")
	p.next()
	var update ast.Expression
	if p.cur.Type != lexer.RPAREN {
		update = p.parseExpression()
	}
	p.expect(lexer.RPAREN, ")")
	p.next()
	body := p.parseStatement()
	return &ast.ForStatement{Init: init, Test: test, Update: update, Body: body, Pos: pos}
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	pos := p.pos()
	p.expect(lexer.LBRACE, "{")
	p.next()
	block := &ast.BlockStatement{Pos: pos}
	for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Body = append(block.Body, stmt)
		} else {
			p.next()
		}
	}
	p.expect(lexer.RBRACE, "}")
	p.next()
	return block
}

func (p *Parser) parseExpressionStatement() *ast.ExpressionStatement {
	pos := p.pos()
	expr := p.parseExpression()
	p.consumeSemicolon()
	return &ast.ExpressionStatement{Expression: expr, Pos: pos}
}

// parseExpression parses a full expression including the comma (sequence)
// operator — used at statement level and in for-loop clauses, never inside
// call arguments or array/object literals.
func (p *Parser) parseExpression() ast.Expression {
	pos := p.pos()
	first := p.parseAssignExpr()
	if p.cur.Type != lexer.COMMA {
		return first
	}
	seq := &ast.SequenceExpression{Expressions: []ast.Expression{first}, Pos: pos}
	for p.cur.Type == lexer.COMMA {
		p.next()
		seq.Expressions = append(seq.Expressions, p.parseAssignExpr())
	}
	return seq
}

func (p *Parser) parseAssignExpr() ast.Expression {
	left := p.parseConditional()
	if isAssignOp(p.cur.Type) {
		op := p.cur.Literal
		pos := p.pos()
		p.next()
		right := p.parseAssignExpr()
		return &ast.AssignmentExpression{Operator: op, Left: left, Right: right, Pos: pos}
	}
	return left
}

func isAssignOp(t lexer.TokenType) bool {
	return t == lexer.ASSIGN
}

func (p *Parser) parseConditional() ast.Expression {
	test := p.parseBinary(0)
	if p.cur.Type != lexer.QUESTION {
		return test
	}
	pos := p.pos()
	p.next()
	cons := p.parseAssignExpr()
	p.expect(lexer.COLON, ":")
	p.next()
	alt := p.parseAssignExpr()
	return &ast.ConditionalExpression{Test: test, Consequent: cons, Alternate: alt, Pos: pos}
}

// precedence ranks binary operators low (0) to high.
func precedence(t lexer.TokenType) int {
	switch t {
	case lexer.OR_OR:
		return 1
	case lexer.AND_AND:
		return 2
	case lexer.PIPE:
		return 3
	case lexer.CARET:
		return 4
	case lexer.AMP:
		return 5
	case lexer.EQ, lexer.NOT_EQ, lexer.STRICT_EQ, lexer.STRICT_NOT_EQ:
		return 6
	case lexer.LT, lexer.GT, lexer.LT_EQ, lexer.GT_EQ:
		return 7
	case lexer.SHL, lexer.SHR:
		return 8
	case lexer.PLUS, lexer.MINUS:
		return 9
	case lexer.STAR, lexer.SLASH, lexer.PERCENT:
		return 10
	}
	return -1
}

func (p *Parser) parseBinary(minPrec int) ast.Expression {
	left := p.parseUnary()
	for {
		prec := precedence(p.cur.Type)
		if prec < 0 || prec < minPrec {
			return left
		}
		op := p.cur.Literal
		pos := p.pos()
		p.next()
		right := p.parseBinary(prec + 1)
		left = &ast.BinaryExpression{Operator: op, Left: left, Right: right, Pos: pos}
	}
}

func (p *Parser) parseUnary() ast.Expression {
	switch p.cur.Type {
	case lexer.BANG, lexer.MINUS, lexer.PLUS, lexer.VOID, lexer.INCR, lexer.DECR:
		op := p.cur.Literal
		pos := p.pos()
		p.next()
		arg := p.parseUnary()
		return &ast.UnaryExpression{Operator: op, Argument: arg, Prefix: true, Pos: pos}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	for {
		switch p.cur.Type {
		case lexer.DOT:
			p.next()
			name := p.cur.Literal
			p.expect(lexer.IDENT, "property name")
			p.next()
			expr = &ast.StaticMemberExpression{Object: expr, Property: name, Pos: expr.Position()}
		case lexer.LBRACKET:
			p.next()
			prop := p.parseExpression()
			p.expect(lexer.RBRACKET, "]")
			p.next()
			expr = &ast.ComputedMemberExpression{Object: expr, Property: prop, Pos: expr.Position()}
		case lexer.LPAREN:
			args := p.parseArguments()
			expr = &ast.CallExpression{Callee: expr, Arguments: args, Pos: expr.Position()}
		case lexer.INCR, lexer.DECR:
			op := p.cur.Literal
			p.next()
			expr = &ast.UnaryExpression{Operator: op, Argument: expr, Prefix: false, Pos: expr.Position()}
		default:
			return expr
		}
	}
}

func (p *Parser) parseArguments() []ast.Expression {
	p.expect(lexer.LPAREN, "(")
	p.next()
	var args []ast.Expression
	for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
		args = append(args, p.parseAssignExpr())
		if p.cur.Type == lexer.COMMA {
			p.next()
		}
	}
	p.expect(lexer.RPAREN, ")")
	p.next()
	return args
}

func (p *Parser) parsePrimary() ast.Expression {
	pos := p.pos()
	switch p.cur.Type {
	case lexer.IDENT:
		name := p.cur.Literal
		p.next()
		if p.cur.Type == lexer.ARROW {
			return p.finishArrowFromIdent(name, pos)
		}
		return &ast.Identifier{Name: name, Pos: pos}
	case lexer.NUMBER:
		lit := p.cur.Literal
		p.next()
		return &ast.NumericLiteral{Value: parseNumber(lit), Raw: lit, Pos: pos}
	case lexer.STRING:
		val := p.cur.Literal
		p.next()
		return &ast.StringLiteral{Value: val, Pos: pos}
	case lexer.TRUE:
		p.next()
		return &ast.BooleanLiteral{Value: true, Pos: pos}
	case lexer.FALSE:
		p.next()
		return &ast.BooleanLiteral{Value: false, Pos: pos}
	case lexer.NULL:
		p.next()
		return &ast.NullLiteral{Pos: pos}
	case lexer.LPAREN:
		return p.parseParenOrArrow(pos)
	case lexer.LBRACKET:
		return p.parseArrayLiteral(pos)
	case lexer.LBRACE:
		return p.parseObjectLiteral(pos)
	case lexer.FUNCTION, lexer.ASYNC:
		return p.parseFunctionExpression(pos)
	default:
		p.errorf("unexpected token %q", p.cur.Literal)
		p.next()
		return &ast.NullLiteral{Pos: pos}
	}
}

func (p *Parser) parseParenOrArrow(pos ast.Position) ast.Expression {
	p.next() // consume '('
	inner := p.parseExpression()
	p.expect(lexer.RPAREN, ")")
	p.next()
	if p.cur.Type == lexer.ARROW {
		p.next()
		return p.finishArrowBody([]string{exprAsParamName(inner)}, pos)
	}
	return &ast.ParenthesizedExpression{Expression: inner, Pos: pos}
}

func exprAsParamName(expr ast.Expression) string {
	if id, ok := expr.(*ast.Identifier); ok {
		return id.Name
	}
	return ""
}

func (p *Parser) finishArrowFromIdent(name string, pos ast.Position) ast.Expression {
	p.next() // consume '=>'
	return p.finishArrowBody([]string{name}, pos)
}

func (p *Parser) finishArrowBody(params []string, pos ast.Position) ast.Expression {
	if p.cur.Type == lexer.LBRACE {
		return &ast.ArrowFunctionExpression{Params: params, Body: p.parseBlockStatement(), Pos: pos}
	}
	return &ast.ArrowFunctionExpression{Params: params, ExprBody: p.parseAssignExpr(), Pos: pos}
}

func (p *Parser) parseArrayLiteral(pos ast.Position) *ast.ArrayExpression {
	p.next() // consume '['
	arr := &ast.ArrayExpression{Pos: pos}
	for p.cur.Type != lexer.RBRACKET && p.cur.Type != lexer.EOF {
		if p.cur.Type == lexer.COMMA {
			arr.Elements = append(arr.Elements, ast.ArrayElement{Elision: true})
			p.next()
			continue
		}
		spread := false
		if p.cur.Type == lexer.ELLIPSIS {
			spread = true
			p.next()
		}
		el := p.parseAssignExpr()
		arr.Elements = append(arr.Elements, ast.ArrayElement{Expression: el, Spread: spread})
		if p.cur.Type == lexer.COMMA {
			p.next()
		}
	}
	p.expect(lexer.RBRACKET, "]")
	p.next()
	return arr
}

func (p *Parser) parseObjectLiteral(pos ast.Position) *ast.ObjectExpression {
	p.next() // consume '{'
	obj := &ast.ObjectExpression{Pos: pos}
	for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		computed := false
		var key string
		switch p.cur.Type {
		case lexer.IDENT:
			key = p.cur.Literal
			p.next()
		case lexer.STRING:
			key = p.cur.Literal
			p.next()
		case lexer.NUMBER:
			key = p.cur.Literal
			p.next()
		case lexer.LBRACKET:
			p.next()
			computed = true
			key = exprAsParamName(p.parseAssignExpr())
			p.expect(lexer.RBRACKET, "]")
			p.next()
		default:
			p.errorf("unexpected object key %q", p.cur.Literal)
			p.next()
			continue
		}
		p.expect(lexer.COLON, ":")
		p.next()
		value := p.parseAssignExpr()
		obj.Properties = append(obj.Properties, ast.ObjectProperty{Key: key, Computed: computed, Value: value})
		if p.cur.Type == lexer.COMMA {
			p.next()
		}
	}
	p.expect(lexer.RBRACE, "}")
	p.next()
	return obj
}

func (p *Parser) parseFunctionExpression(pos ast.Position) *ast.FunctionExpression {
	async := false
	if p.cur.Type == lexer.ASYNC {
		async = true
		p.next()
	}
	p.next() // consume 'function'
	generator := false
	if p.cur.Type == lexer.STAR {
		generator = true
		p.next()
	}
	var id *ast.Identifier
	if p.cur.Type == lexer.IDENT {
		id = &ast.Identifier{Name: p.cur.Literal, Pos: p.pos()}
		p.next()
	}
	params := p.parseParamList()
	body := p.parseBlockStatement()
	return &ast.FunctionExpression{Id: id, Params: params, Body: body, Async: async, Generator: generator, Pos: pos}
}

func parseNumber(lit string) float64 {
	if len(lit) > 1 && lit[0] == '0' && (lit[1] == 'x' || lit[1] == 'X') {
		n, err := strconv.ParseInt(lit[2:], 16, 64)
		if err != nil {
			return 0
		}
		return float64(n)
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0
	}
	return f
}
